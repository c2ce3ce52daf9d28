package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ahmed.bayoumi/contact-manager/internal/auth"
	"gitlab.com/ahmed.bayoumi/contact-manager/internal/service"
	"gitlab.com/ahmed.bayoumi/contact-manager/internal/store"
)

const testSecret = "test-secret"

var contactColumns = []string{"id", "firstname", "lastname", "phone", "email", "birthdate", "user_id"}
var userColumns = []string{"id", "username", "password_hash", "created_at"}

// newTestRouter wires the full router against a mock database and returns
// the mock for defining our expected SQL calls.
func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, func()) {
	t.Setenv("GIN_LOGGING", "off")
	gin.SetMode(gin.TestMode)

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	db := sqlx.NewDb(sqlDB, "mysql")

	mock.ExpectPrepare("SELECT \\* FROM users WHERE username")
	mock.ExpectPrepare("INSERT INTO users")
	mock.ExpectPrepare("INSERT INTO contacts")
	mock.ExpectPrepare("SELECT \\* FROM contacts WHERE user_id")
	mock.ExpectPrepare("SELECT \\* FROM contacts WHERE id")
	mock.ExpectPrepare("SELECT COUNT\\(\\*\\) FROM contacts WHERE user_id")
	mock.ExpectPrepare("SELECT EXISTS")

	users, err := store.NewUserStore(db)
	require.NoError(t, err)
	contacts, err := store.NewContactStore(db)
	require.NoError(t, err)

	server := NewServer(
		users,
		service.NewOwnerResolver(users),
		service.NewContactService(contacts),
		testSecret,
		time.Hour,
	)
	return server.Router(), mock, func() { db.Close() }
}

// bearerFor signs a token the middleware accepts for the given username.
func bearerFor(t *testing.T, username string) string {
	token, err := auth.SignToken(testSecret, username, time.Hour)
	require.NoError(t, err)
	return token
}

// expectOwnerLookup registers the per-request username resolution performed
// by the auth middleware.
func expectOwnerLookup(mock sqlmock.Sqlmock, username string, id int64) {
	mock.ExpectQuery("SELECT \\* FROM users WHERE username").
		WithArgs(username).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(id, username, "$2a$10$hash", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
}

// runTest executes the HTTP request with the specified arguments and returns
// the response.
func runTest(router *gin.Engine, method string, url string, token string, body *strings.Reader) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	if body == nil {
		body = strings.NewReader("")
	}
	request, _ := http.NewRequest(method, url, body)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(recorder, request)
	return recorder
}

// TestCreateContact executes a POST request with a valid body. It expects
// the CREATED status code and a body with the posted values plus the newly
// assigned id.
func TestCreateContact(t *testing.T) {
	router, mock, closeDB := newTestRouter(t)
	defer closeDB()

	expectOwnerLookup(mock, "alice", 1)
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs("Erika", "Mustermann", "+49 0815 4711", "erika@example.com",
			time.Date(1969, time.March, 2, 0, 0, 0, 0, time.UTC), int64(1)).
		WillReturnResult(sqlmock.NewResult(11, 1))

	recorder := runTest(router, "POST", "/api/contacts", bearerFor(t, "alice"), strings.NewReader(`
		{
			"firstName": "Erika",
			"lastName": "Mustermann",
			"phoneNumber": "+49 0815 4711",
			"email": "erika@example.com",
			"birthdate": "1969-03-02T00:00:00Z"
		}
	`))
	assert.Equal(t, http.StatusCreated, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.Equal(t, 11.0, body["id"])
	assert.Equal(t, "Erika", body["firstName"])
	assert.Equal(t, "Mustermann", body["lastName"])
	assert.Equal(t, "+49 0815 4711", body["phoneNumber"])
	assert.Equal(t, "erika@example.com", body["email"])
	assert.Equal(t, "1969-03-02T00:00:00Z", body["birthdate"])

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestCreateContactInvalidBodies executes POST requests with invalid bodies.
// It expects BAD REQUEST for each one, without any contact SQL being
// executed.
func TestCreateContactInvalidBodies(t *testing.T) {
	invalidRequestBodies := []string{
		"",
		"not JSON",
		`{"firstName": "Erika"}`,                    // lastName and phoneNumber missing
		`{"firstName": "Erika", "lastName": "Mustermann", "phoneNumber": "1", "email": "not-an-email"}`,
		`{"firstName": "Erika", "lastName": "Mustermann", "phoneNumber": "1", "birthdate": "2999-01-01T00:00:00Z"}`,
	}
	for _, body := range invalidRequestBodies {
		router, mock, closeDB := newTestRouter(t)
		expectOwnerLookup(mock, "alice", 1)

		recorder := runTest(router, "POST", "/api/contacts", bearerFor(t, "alice"), strings.NewReader(body))
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "request body: "+body)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
		closeDB()
	}
}

// TestContactsRequireToken verifies the authentication edge cases: a missing
// or invalid token answers UNAUTHORIZED, while a valid token whose user row
// is missing is a backend fault and answers INTERNAL SERVER ERROR.
func TestContactsRequireToken(t *testing.T) {
	router, mock, closeDB := newTestRouter(t)
	defer closeDB()

	recorder := runTest(router, "GET", "/api/contacts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = runTest(router, "GET", "/api/contacts", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	mock.ExpectQuery("SELECT \\* FROM users WHERE username").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userColumns))
	recorder = runTest(router, "GET", "/api/contacts", bearerFor(t, "ghost"), nil)
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestListContacts executes a GET request for all contacts of the caller.
func TestListContacts(t *testing.T) {
	router, mock, closeDB := newTestRouter(t)
	defer closeDB()

	expectOwnerLookup(mock, "alice", 1)
	rows := sqlmock.NewRows(contactColumns).
		AddRow(1, "Jo", "Lee", "+1 111", nil, nil, 1).
		AddRow(2, "An", "Kim", "+82 222", nil, nil, 1)
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE user_id").
		WithArgs(int64(1)).
		WillReturnRows(rows)

	recorder := runTest(router, "GET", "/api/contacts", bearerFor(t, "alice"), nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	var contacts []map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &contacts)
	assert.Equal(t, 2, len(contacts))
	assert.Equal(t, "Jo", contacts[0]["firstName"])
	assert.Equal(t, "An", contacts[1]["firstName"])

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestListContactsPage replays the paging scenario: two contacts, page size
// one, sorted ascending by first name. The first page holds An Kim and the
// metadata covers both contacts.
func TestListContactsPage(t *testing.T) {
	router, mock, closeDB := newTestRouter(t)
	defer closeDB()

	expectOwnerLookup(mock, "alice", 1)
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE user_id = \\? ORDER BY firstname ASC").
		WithArgs(int64(1), 1, 0).
		WillReturnRows(sqlmock.NewRows(contactColumns).
			AddRow(2, "An", "Kim", "+82 222", nil, nil, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM contacts WHERE user_id").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	recorder := runTest(router, "GET", "/api/contacts/page?page=0&size=1&sortBy=firstName&direction=asc",
		bearerFor(t, "alice"), nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	contacts := body["contacts"].([]interface{})
	assert.Equal(t, 1, len(contacts))
	assert.Equal(t, "An", contacts[0].(map[string]interface{})["firstName"])
	assert.Equal(t, 0.0, body["currentPage"])
	assert.Equal(t, 2.0, body["totalPages"])
	assert.Equal(t, 2.0, body["totalElements"])

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestListContactsPageInvalidParams executes page requests with a negative
// page index, a zero size and an unknown sort key. Each answers BAD REQUEST
// without running contact SQL.
func TestListContactsPageInvalidParams(t *testing.T) {
	urls := []string{
		"/api/contacts/page?page=-1",
		"/api/contacts/page?page=x",
		"/api/contacts/page?size=0",
		"/api/contacts/page?sortBy=favoriteColor",
	}
	for _, url := range urls {
		router, mock, closeDB := newTestRouter(t)
		expectOwnerLookup(mock, "alice", 1)

		recorder := runTest(router, "GET", url, bearerFor(t, "alice"), nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "url: "+url)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
		closeDB()
	}
}

// TestGetContact executes a GET request for a single contact with a valid
// ID owned by the caller.
func TestGetContact(t *testing.T) {
	router, mock, closeDB := newTestRouter(t)
	defer closeDB()

	expectOwnerLookup(mock, "alice", 1)
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id").
		WithArgs(int64(29), int64(1)).
		WillReturnRows(sqlmock.NewRows(contactColumns).
			AddRow(29, "Erika", "Mustermann", "+49 0815 4711", nil, nil, 1))

	recorder := runTest(router, "GET", "/api/contacts/29", bearerFor(t, "alice"), nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.Equal(t, 29.0, body["id"])
	assert.Equal(t, "Erika", body["firstName"])

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestGetContactOfAnotherOwner requests a contact id that exists globally
// but belongs to alice, using bob's token. The answer is NOT FOUND, exactly
// as if the id did not exist.
func TestGetContactOfAnotherOwner(t *testing.T) {
	router, mock, closeDB := newTestRouter(t)
	defer closeDB()

	expectOwnerLookup(mock, "bob", 2)
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id").
		WithArgs(int64(29), int64(2)).
		WillReturnRows(sqlmock.NewRows(contactColumns))

	recorder := runTest(router, "GET", "/api/contacts/29", bearerFor(t, "bob"), nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.Equal(t, "contact not found", body["message"])

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestGetContactInvalidCharacterID executes a GET request with an ID
// consisting of characters. It expects NOT FOUND without reaching the
// contacts table.
func TestGetContactInvalidCharacterID(t *testing.T) {
	router, mock, closeDB := newTestRouter(t)
	defer closeDB()

	expectOwnerLookup(mock, "alice", 1)

	recorder := runTest(router, "GET", "/api/contacts/INVALID", bearerFor(t, "alice"), nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestUpdateContact executes a PUT request with a valid ID and body. The
// response carries the contact with all mutable fields replaced.
func TestUpdateContact(t *testing.T) {
	router, mock, closeDB := newTestRouter(t)
	defer closeDB()

	expectOwnerLookup(mock, "alice", 1)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id").
		WithArgs(int64(17), int64(1)).
		WillReturnRows(sqlmock.NewRows(contactColumns).
			AddRow(17, "Rudi", "Voeller", "+49 123", "rudi@example.com", nil, 1))
	mock.ExpectExec("UPDATE contacts").
		WithArgs("Rudi", "Voeller", "+49 1234567890", nil, nil, int64(17), int64(1)).
		WillReturnResult(sqlmock.NewResult(-1, 1))
	mock.ExpectCommit()

	recorder := runTest(router, "PUT", "/api/contacts/17", bearerFor(t, "alice"), strings.NewReader(`
		{
			"firstName": "Rudi",
			"lastName": "Voeller",
			"phoneNumber": "+49 1234567890"
		}
	`))
	assert.Equal(t, http.StatusOK, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.Equal(t, 17.0, body["id"])
	assert.Equal(t, "+49 1234567890", body["phoneNumber"])
	// Full replace: the omitted email is gone, not preserved.
	assert.Equal(t, nil, body["email"])

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestDeleteContact executes a DELETE request for an owned contact and
// expects NO CONTENT; a second DELETE for the same id answers NOT FOUND.
func TestDeleteContact(t *testing.T) {
	router, mock, closeDB := newTestRouter(t)
	defer closeDB()

	expectOwnerLookup(mock, "alice", 1)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(42), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("DELETE FROM contacts").
		WithArgs(int64(42), int64(1)).
		WillReturnResult(sqlmock.NewResult(-1, 1))
	mock.ExpectCommit()

	recorder := runTest(router, "DELETE", "/api/contacts/42", bearerFor(t, "alice"), nil)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	expectOwnerLookup(mock, "alice", 1)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(42), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	recorder = runTest(router, "DELETE", "/api/contacts/42", bearerFor(t, "alice"), nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestRegister executes a POST request creating a user and expects CREATED
// with the assigned id; a duplicate username answers CONFLICT.
func TestRegister(t *testing.T) {
	router, mock, closeDB := newTestRouter(t)
	defer closeDB()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	recorder := runTest(router, "POST", "/api/auth/register", "", strings.NewReader(`
		{"username": "alice", "password": "wonderland"}
	`))
	assert.Equal(t, http.StatusCreated, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.Equal(t, 1.0, body["id"])
	assert.Equal(t, "alice", body["username"])
	// The hash must never leave the service.
	_, leaked := body["password_hash"]
	assert.False(t, leaked)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestLogin verifies the credential check and that the issued token is
// accepted by the middleware's parser.
func TestLogin(t *testing.T) {
	router, mock, closeDB := newTestRouter(t)
	defer closeDB()

	hash, err := auth.HashPassword("wonderland")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT \\* FROM users WHERE username").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "alice", hash, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))

	recorder := runTest(router, "POST", "/api/auth/login", "", strings.NewReader(`
		{"username": "alice", "password": "wonderland"}
	`))
	assert.Equal(t, http.StatusOK, recorder.Code)
	var body map[string]string
	json.Unmarshal(recorder.Body.Bytes(), &body)
	username, err := auth.ParseToken(testSecret, body["token"])
	assert.NoError(t, err)
	assert.Equal(t, "alice", username)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestLoginRejectsBadCredentials verifies that a wrong password and an
// unknown username answer identically.
func TestLoginRejectsBadCredentials(t *testing.T) {
	router, mock, closeDB := newTestRouter(t)
	defer closeDB()

	hash, err := auth.HashPassword("wonderland")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT \\* FROM users WHERE username").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "alice", hash, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
	recorder := runTest(router, "POST", "/api/auth/login", "", strings.NewReader(`
		{"username": "alice", "password": "through-the-looking-glass"}
	`))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	var wrongPassword map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &wrongPassword)

	mock.ExpectQuery("SELECT \\* FROM users WHERE username").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(userColumns))
	recorder = runTest(router, "POST", "/api/auth/login", "", strings.NewReader(`
		{"username": "nobody", "password": "wonderland"}
	`))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	var unknownUser map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &unknownUser)

	assert.Equal(t, wrongPassword["message"], unknownUser["message"])

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestHealth verifies the readiness endpoint needs no token.
func TestHealth(t *testing.T) {
	router, mock, closeDB := newTestRouter(t)
	defer closeDB()

	recorder := runTest(router, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
