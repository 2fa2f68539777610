package echoapi

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mbooni/bursary/core"
	"github.com/mbooni/bursary/core/application"
	"github.com/mbooni/bursary/core/disbursement"
	"github.com/mbooni/bursary/core/notification"
	"github.com/mbooni/bursary/core/report"
	"github.com/mbooni/bursary/core/user"
	appfs "github.com/mbooni/bursary/fs"
	"github.com/mbooni/bursary/services/backend"
	"github.com/mbooni/bursary/services/email"
	"github.com/mbooni/bursary/storage/database/inmem"
	"github.com/mbooni/bursary/tests"
)

var errMissingToken = Response{Message: "missing or malformed jwt"}

type testEnv struct {
	app     Server
	conf    *core.Config
	usrRepo user.Repository
	usrSvc  user.Service
	backend *fakeBackend
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	fb := newFakeBackend(t)
	conf := core.NewTestConfig()
	conf.Backend.BaseURL = fb.URL
	logger := testutil.NewLogger()

	validate, translator := core.NewValidate()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	core.ParseEmailTemplates(appfs.FS, conf, logger)

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	emailsvc.ResetSentMessages()
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, logger, conf)
	client, err := backendsvc.NewClient(conf, logger)
	require.NoError(t, err)
	disbSvc := disbursement.NewService(client, logger)

	// set up server
	app := NewServer(ServerDeps{
		Conf:            conf,
		Logger:          logger,
		DisableReqLogs:  true,
		UserSvc:         usrSvc,
		ApplicationSvc:  application.NewService(testutil.LoadForm(t), inmemdb.NewDraftStore(db), client, mailSvc, logger),
		DisbursementSvc: disbSvc,
		NotificationSvc: notification.NewService(client),
		ReportSvc:       report.NewService(disbSvc),
		Validate:        validate,
		Translator:      translator,
	})
	return &testEnv{app: app, conf: conf, usrRepo: usrRepo, usrSvc: usrSvc, backend: fb}
}

func (env *testEnv) createStudent(t *testing.T, ident string) user.User {
	return testutil.CreateUser(t, env.usrRepo, "Mwende Musyoka", ident, "Kivani#2024x", user.StudentRoles, true)
}

func (env *testEnv) createAdmin(t *testing.T, ident string) user.User {
	return testutil.CreateUser(t, env.usrRepo, "Bursary Officer", ident, "Kivani#2024x", user.AdminRoles, true)
}

func (env *testEnv) serve(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	env.app.ServeHTTP(rec, req)
	return rec
}

// fakeBackend mimics the remote PHP endpoints. Responses are set per path.
type fakeBackend struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]fakeResponse
	forms     []url.Values             // values of each application received
	files     []map[string]string      // field -> filename of each application received
	received  []map[string]interface{} // JSON bodies received
}

type fakeResponse struct {
	status      int
	contentType string
	body        string
	headers     map[string]string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	fb := &fakeBackend{responses: make(map[string]fakeResponse)}
	fb.Server = httptest.NewServer(http.HandlerFunc(fb.handle))
	t.Cleanup(fb.Close)
	return fb
}

func (fb *fakeBackend) set(path string, status int, body string) {
	fb.setResponse(path, fakeResponse{status: status, contentType: "application/json", body: body})
}

func (fb *fakeBackend) setResponse(path string, resp fakeResponse) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.responses[path] = resp
}

func (fb *fakeBackend) submissions() []url.Values {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]url.Values{}, fb.forms...)
}

func (fb *fakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	resp, ok := fb.responses[r.URL.Path]
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/application.php":
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			fb.forms = append(fb.forms, r.MultipartForm.Value)
			files := make(map[string]string, len(r.MultipartForm.File))
			for name, fhs := range r.MultipartForm.File {
				files[name] = fhs[0].Filename
			}
			fb.files = append(fb.files, files)
		}
	case r.Method == http.MethodPost:
		var body map[string]interface{}
		data, _ := ioutil.ReadAll(r.Body)
		if json.Unmarshal(data, &body) == nil {
			fb.received = append(fb.received, body)
		}
	}
	fb.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	for k, v := range resp.headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", resp.contentType)
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newMultipartRequest builds a multipart/form-data request; files maps field names to filenames,
// the content of each file being its filename.
func newMultipartRequest(t *testing.T, method, path, token string, fields, files map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, v := range fields {
		require.NoError(t, w.WriteField(name, v))
	}
	for name, filename := range files {
		part, err := w.CreateFormFile(name, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(filename))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// decodeResponse reads the envelope of rec; its data, if any, is decoded into data when not nil.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) Response {
	t.Helper()
	var resp struct {
		Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data), rec.Body.String())
	}
	return resp.Response
}
