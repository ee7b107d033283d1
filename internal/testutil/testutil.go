package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"ebookstore/internal/catalog"
	"ebookstore/internal/httpx"
	"ebookstore/internal/platform/crypto"
)

// TestDeviceSecret signs device cookies in tests.
const TestDeviceSecret = "test-device-secret"

// TestBooks is a small catalog covering both http and s3 asset locations.
var TestBooks = []catalog.Book{
	{
		ID:          "b1",
		Title:       "Things Fall Apart",
		Author:      "Chinua Achebe",
		Description: "A novel about Okonkwo and the village of Umuofia.",
		Price:       2500,
		CoverImage:  "https://covers.example.com/b1.jpg",
		FileURL:     "https://files.example.com/b1.pdf",
		Category:    "Fiction",
	},
	{
		ID:          "b2",
		Title:       "Half of a Yellow Sun",
		Author:      "Chimamanda Ngozi Adichie",
		Description: "Three lives swept up in the Nigerian civil war.",
		Price:       3000,
		CoverImage:  "https://covers.example.com/b2.jpg",
		FileURL:     "s3://books/b2.pdf",
		Category:    "Fiction",
	},
	{
		ID:          "b3",
		Title:       "The Trouble with Nigeria",
		Author:      "Chinua Achebe",
		Description: "An essay on leadership.",
		Price:       1200,
		CoverImage:  "https://covers.example.com/b3.jpg",
		FileURL:     "https://files.example.com/b3.pdf",
		Category:    "Non-Fiction",
	},
}

// NewTestCatalog returns a static repository over TestBooks.
func NewTestCatalog() *catalog.StaticRepo {
	repo, err := catalog.NewStaticRepo(TestBooks)
	if err != nil {
		panic(err)
	}
	return repo
}

// DeviceCookie returns a valid device cookie for deviceID signed with TestDeviceSecret.
func DeviceCookie(deviceID string) *http.Cookie {
	token, err := crypto.GenerateDeviceToken(TestDeviceSecret, deviceID, time.Hour)
	if err != nil {
		panic(err)
	}
	return &http.Cookie{Name: httpx.DeviceCookieName, Value: token}
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// NewDeviceRequest creates a request carrying the device cookie for deviceID.
func NewDeviceRequest(method, path string, body interface{}, deviceID string) *http.Request {
	r := NewRequest(method, path, body)
	if deviceID != "" {
		r.AddCookie(DeviceCookie(deviceID))
	}
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
}

// RecordHTTPResponse records the HTTP response
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	if len(bodyBytes) > 0 {
		json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}

// Data returns the envelope's data object, or nil when it is not an object.
func (rr RecordResponse) Data() map[string]interface{} {
	data, _ := rr.Body["data"].(map[string]interface{})
	return data
}

// ErrorCode returns the envelope's error code, or "" when there is none.
func (rr RecordResponse) ErrorCode() string {
	errObj, _ := rr.Body["error"].(map[string]interface{})
	code, _ := errObj["code"].(string)
	return code
}
