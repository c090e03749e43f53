package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deductible/internal/auth"
	"deductible/internal/core"
	"deductible/internal/log"
	"deductible/internal/receipts"
	"deductible/internal/services"
	"deductible/internal/storage"
)

type testEnv struct {
	srv         *Server
	repo        *storage.SQLiteRepository
	auth        *auth.Authenticator
	receiptsDir string
	session     *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	repo, err := storage.NewSQLiteRepository(filepath.Join(dir, "expenses.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	receiptsDir := filepath.Join(dir, "receipts")
	store := receipts.NewStore(receiptsDir)
	require.NoError(t, store.Init())

	authenticator := auth.NewAuthenticator("admin", "s3cret", "test-secret")
	token, err := authenticator.NewToken()
	require.NoError(t, err)

	srv := NewServer(Options{
		Addr:        ":0",
		Service:     services.NewExpenseService(repo, store),
		Auth:        authenticator,
		ReceiptsDir: receiptsDir,
		Logger:      log.New(log.Config{Output: io.Discard}),
	})

	return &testEnv{
		srv:         srv,
		repo:        repo,
		auth:        authenticator,
		receiptsDir: receiptsDir,
		session:     &http.Cookie{Name: auth.CookieName, Value: token},
	}
}

func (e *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil), e.session)
}

func (e *testEnv) insert(t *testing.T, exp core.Expense) int64 {
	t.Helper()
	if exp.MileageRate == 0 {
		exp.MileageRate = core.DefaultMileageRate
	}
	id, err := e.repo.Insert(context.Background(), exp)
	require.NoError(t, err)
	return id
}

func (e *testEnv) count(t *testing.T) int64 {
	t.Helper()
	n, err := e.repo.Count(context.Background())
	require.NoError(t, err)
	return n
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// flashesFrom decodes the flash cookie set on a response.
func flashesFrom(rr *httptest.ResponseRecorder) []string {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rr.Result().Cookies() {
		if c.Name == flashCookie && c.MaxAge >= 0 {
			req.AddCookie(c)
		}
	}
	return popFlashes(httptest.NewRecorder(), req)
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"), path)
	}
}

func TestStaticAssetsArePublic(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Cache-Control"), "max-age=3600")
}

func TestRequireAuthRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/", "/expenses?year=2024", "/api/totals", "/export.csv", "/static/receipts/x.pdf"} {
		rr := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusFound, rr.Code, path)
		assert.Equal(t, "/login?next="+url.QueryEscape(path), rr.Header().Get("Location"), path)
	}
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return env.do(req)
	}

	t.Run("login page renders", func(t *testing.T) {
		rr := env.do(httptest.NewRequest(http.MethodGet, "/login?next=%2Fcharts", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `value="/charts"`)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		rr := post(url.Values{"username": {"admin"}, "password": {"wrong"}})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid credentials.")
		for _, c := range rr.Result().Cookies() {
			assert.NotEqual(t, auth.CookieName, c.Name)
		}
	})

	t.Run("success redirects to next", func(t *testing.T) {
		rr := post(url.Values{"username": {"admin"}, "password": {"s3cret"}, "next": {"/expenses?month=3"}})
		require.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/expenses?month=3", rr.Header().Get("Location"))
		assert.Equal(t, []string{"Logged in."}, flashesFrom(rr))

		var session *http.Cookie
		for _, c := range rr.Result().Cookies() {
			if c.Name == auth.CookieName {
				session = c
			}
		}
		require.NotNil(t, session)
		assert.True(t, session.HttpOnly)

		follow := env.do(httptest.NewRequest(http.MethodGet, "/expenses", nil), session)
		assert.Equal(t, http.StatusOK, follow.Code)
	})

	t.Run("foreign next is ignored", func(t *testing.T) {
		rr := post(url.Values{"username": {"admin"}, "password": {"s3cret"}, "next": {"//evil.example"}})
		require.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"))
	})

	t.Run("logout clears session", func(t *testing.T) {
		rr := env.do(httptest.NewRequest(http.MethodGet, "/logout", nil), env.session)
		require.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, auth.LoginPath, rr.Header().Get("Location"))
		assert.Equal(t, []string{"Logged out."}, flashesFrom(rr))

		var cleared bool
		for _, c := range rr.Result().Cookies() {
			if c.Name == auth.CookieName && c.MaxAge < 0 {
				cleared = true
			}
		}
		assert.True(t, cleared)
	})
}

func TestAddExpenseThenList(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{
		"dt":          {"2024-03-15"},
		"description": {"Client lunch\x07"},
		"vendor":      {"Bistro"},
		"amount":      {"42.50"},
		"category":    {"Meals"},
		"miles":       {"10"},
	}
	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := env.do(req, env.session)

	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/expenses", rr.Header().Get("Location"))
	assert.Equal(t, []string{"Expense added."}, flashesFrom(rr))

	rows, err := env.repo.List(context.Background(), core.ListFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	got := rows[0]
	assert.Equal(t, "Client lunch", got.Description)
	assert.Equal(t, 2024, got.TaxYear)
	assert.Equal(t, 42.5, got.Amount)
	assert.Equal(t, core.DefaultMileageRate, got.MileageRate)
	assert.True(t, got.IsDeductible, "absent checkbox means deductible")
	assert.Empty(t, got.ReceiptPath)

	list := env.get("/expenses")
	assert.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), "Client lunch")
	assert.Contains(t, list.Body.String(), "Bistro")
}

func TestAddExpenseWithReceipt(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		wantSaved bool
	}{
		{name: "pdf stored", filename: "scan.PDF", wantSaved: true},
		{name: "executable skipped", filename: "x.exe", wantSaved: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			body, contentType := multipartBody(t, map[string]string{
				"dt":            "2024-05-02",
				"amount":        "10",
				"is_deductible": "on",
			}, "receipt", tt.filename, "%PDF-1.4")
			req := httptest.NewRequest(http.MethodPost, "/add", body)
			req.Header.Set("Content-Type", contentType)
			rr := env.do(req, env.session)
			require.Equal(t, http.StatusFound, rr.Code)

			rows, err := env.repo.List(context.Background(), core.ListFilter{})
			require.NoError(t, err)
			require.Len(t, rows, 1, "the expense is created either way")

			entries, err := os.ReadDir(env.receiptsDir)
			require.NoError(t, err)

			if !tt.wantSaved {
				assert.Empty(t, rows[0].ReceiptPath)
				assert.Empty(t, entries)
				return
			}

			require.Len(t, entries, 1)
			assert.True(t, strings.HasSuffix(entries[0].Name(), "_scan.PDF"))
			assert.Equal(t, receipts.DefaultURLPrefix+entries[0].Name(), rows[0].ReceiptPath)

			served := env.get(rows[0].ReceiptPath)
			assert.Equal(t, http.StatusOK, served.Code)
			assert.Equal(t, "%PDF-1.4", served.Body.String())
		})
	}
}

func TestAddExpenseTooLarge(t *testing.T) {
	env := newTestEnv(t)
	env.srv.maxUpload = 1024

	body, contentType := multipartBody(t, map[string]string{"amount": "1"}, "receipt", "big.png", strings.Repeat("x", 4096))
	req := httptest.NewRequest(http.MethodPost, "/add", body)
	req.Header.Set("Content-Type", contentType)
	rr := env.do(req, env.session)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Zero(t, env.count(t))
}

func postForm(env *testEnv, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return env.do(req, env.session)
}

func TestAddExpenseDeductibleCheckbox(t *testing.T) {
	env := newTestEnv(t)

	page := env.get("/expenses")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `<input type="hidden" name="is_deductible" value="0">`)

	// The browser sends only the hidden field when the box is unchecked.
	unchecked := postForm(env, "/add", url.Values{
		"dt": {"2024-06-01"}, "amount": {"40"}, "category": {"Meals"}, "is_deductible": {"0"},
	})
	require.Equal(t, http.StatusFound, unchecked.Code)

	checked := postForm(env, "/add", url.Values{
		"dt": {"2024-06-02"}, "amount": {"60"}, "category": {"Travel"}, "is_deductible": {"0", "1"},
	})
	require.Equal(t, http.StatusFound, checked.Code)

	rr := env.get("/api/totals?year=2024")
	require.Equal(t, http.StatusOK, rr.Code)
	var totals totalsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &totals))
	assert.Equal(t, 60.0, totals.GrandTotal)
	assert.Equal(t, map[string]float64{"Travel": 60}, totals.ByCategory)

	rr = env.get("/api/monthly?year=2024")
	require.Equal(t, http.StatusOK, rr.Code)
	var monthly monthlyResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &monthly))
	assert.Equal(t, 100.0, monthly.Series[5])
}

func TestAddExpenseNonFiniteAmount(t *testing.T) {
	env := newTestEnv(t)

	rr := postForm(env, "/add", url.Values{
		"dt": {"2024-02-01"}, "amount": {"inf"}, "miles": {"NaN"}, "category": {"Travel"},
	})
	require.Equal(t, http.StatusFound, rr.Code)

	rows, err := env.repo.List(context.Background(), core.ListFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].Amount)
	assert.Zero(t, rows[0].Miles)

	for _, path := range []string{"/?year=2024", "/api/totals?year=2024", "/api/monthly?year=2024"} {
		assert.Equal(t, http.StatusOK, env.get(path).Code, path)
	}
}

func TestDeleteExpense(t *testing.T) {
	env := newTestEnv(t)
	id := env.insert(t, core.Expense{Date: core.NewDate(2024, 1, 2), Amount: 5, Category: "Other", TaxYear: 2024, IsDeductible: true})

	t.Run("redirects to referer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/delete/"+strconv.FormatInt(id, 10), nil)
		req.Header.Set("Referer", "http://example.com/expenses?year=2024")
		rr := env.do(req, env.session)

		require.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/expenses?year=2024", rr.Header().Get("Location"))
		assert.Equal(t, []string{"Deleted."}, flashesFrom(rr))
		assert.Zero(t, env.count(t))
	})

	t.Run("missing id is a no-op", func(t *testing.T) {
		rr := env.do(httptest.NewRequest(http.MethodPost, "/delete/9999", nil), env.session)
		require.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/expenses", rr.Header().Get("Location"))
	})

	t.Run("non numeric id", func(t *testing.T) {
		rr := env.do(httptest.NewRequest(http.MethodPost, "/delete/abc", nil), env.session)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("get not allowed", func(t *testing.T) {
		rr := env.get("/delete/1")
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})
}

func TestExpensesMonthFilterSpansYears(t *testing.T) {
	env := newTestEnv(t)
	env.insert(t, core.Expense{Date: core.NewDate(2023, 3, 10), Description: "march-2023", Amount: 1, Category: "Other", TaxYear: 2023, IsDeductible: true})
	env.insert(t, core.Expense{Date: core.NewDate(2024, 3, 11), Description: "march-2024", Amount: 1, Category: "Other", TaxYear: 2024, IsDeductible: true})
	env.insert(t, core.Expense{Date: core.NewDate(2024, 4, 1), Description: "april-2024", Amount: 1, Category: "Other", TaxYear: 2024, IsDeductible: true})

	rr := env.get("/expenses?month=3")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "march-2023")
	assert.Contains(t, body, "march-2024")
	assert.NotContains(t, body, "april-2024")

	// Out of range values are ignored rather than rejected.
	rr = env.get("/expenses?month=13&year=abc")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "april-2024")
}

func TestReportAndAPIs(t *testing.T) {
	env := newTestEnv(t)
	env.insert(t, core.Expense{Date: core.NewDate(2024, 3, 5), Amount: 100, Category: "Travel", TaxYear: 2024, IsDeductible: true})
	env.insert(t, core.Expense{Date: core.NewDate(2024, 3, 6), Amount: 50, Category: "Meals", TaxYear: 2024, IsDeductible: false})
	env.insert(t, core.Expense{Date: core.NewDate(2024, 7, 1), Amount: 20, Miles: 10, MileageRate: 0.5, Category: "Travel", TaxYear: 2024, IsDeductible: true})

	t.Run("totals are deductible only", func(t *testing.T) {
		rr := env.get("/api/totals?year=2024")
		require.Equal(t, http.StatusOK, rr.Code)

		var got totalsResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, 2024, got.Year)
		assert.Equal(t, 125.0, got.GrandTotal)
		assert.Equal(t, map[string]float64{"Travel": 125}, got.ByCategory)
	})

	t.Run("monthly includes non deductible", func(t *testing.T) {
		rr := env.get("/api/monthly?year=2024")
		require.Equal(t, http.StatusOK, rr.Code)

		var got monthlyResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		require.Len(t, got.Series, 12)
		assert.Equal(t, 150.0, got.Series[2])
		assert.Equal(t, 25.0, got.Series[6])
		assert.Zero(t, got.Series[0])
	})

	t.Run("empty year", func(t *testing.T) {
		rr := env.get("/api/totals?year=1999")
		require.Equal(t, http.StatusOK, rr.Code)

		var got totalsResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Zero(t, got.GrandTotal)
		assert.Empty(t, got.ByCategory)
	})

	t.Run("invalid year", func(t *testing.T) {
		for _, path := range []string{"/api/totals?year=abc", "/api/monthly?year=0"} {
			rr := env.get(path)
			assert.Equal(t, http.StatusBadRequest, rr.Code, path)

			var got errorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.NotEmpty(t, got.Error)
		}
	})

	t.Run("report page", func(t *testing.T) {
		rr := env.get("/?year=2024")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Travel")
		assert.NotContains(t, rr.Body.String(), "Meals")
		assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	})

	t.Run("charts page", func(t *testing.T) {
		rr := env.get("/charts?year=2024")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `data-year="2024"`)
	})
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	env.insert(t, core.Expense{Date: core.NewDate(2024, 2, 1), Description: "second", Amount: 2, Category: "Other", TaxYear: 2024, IsDeductible: true})
	env.insert(t, core.Expense{Date: core.NewDate(2024, 1, 1), Description: "first", Amount: 1, Category: "Other", TaxYear: 2024, IsDeductible: false})

	rr := env.get("/export.csv?year=2024")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="expenses_export.csv"`, rr.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,description,vendor,amount,category,payment_method,tax_year,project,location,receipt_url,miles,mileage_rate,is_deductible,notes", strings.TrimSpace(lines[0]))
	assert.True(t, strings.HasPrefix(lines[1], "2024-01-01,first"), "oldest first")
	assert.True(t, strings.HasPrefix(lines[2], "2024-02-01,second"))
}

func TestImport(t *testing.T) {
	const csvData = "Date,Description,Amount,Category,Is_Deductible\n" +
		"2024-01-05,Paper,12.5,Office Supplies,1\n" +
		"not-a-date,Mystery,3,,no\n"

	t.Run("rejects non csv name", func(t *testing.T) {
		env := newTestEnv(t)
		body, contentType := multipartBody(t, nil, "csv", "data.txt", csvData)
		req := httptest.NewRequest(http.MethodPost, "/import", body)
		req.Header.Set("Content-Type", contentType)
		rr := env.do(req, env.session)

		require.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/import", rr.Header().Get("Location"))
		assert.Equal(t, []string{"Please upload a CSV file."}, flashesFrom(rr))
		assert.Zero(t, env.count(t))
	})

	t.Run("rejects missing file", func(t *testing.T) {
		env := newTestEnv(t)
		body, contentType := multipartBody(t, nil, "", "", "")
		req := httptest.NewRequest(http.MethodPost, "/import", body)
		req.Header.Set("Content-Type", contentType)
		rr := env.do(req, env.session)

		require.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, []string{"Please upload a CSV file."}, flashesFrom(rr))
	})

	t.Run("imports rows", func(t *testing.T) {
		env := newTestEnv(t)
		body, contentType := multipartBody(t, nil, "csv", "Data.CSV", csvData)
		req := httptest.NewRequest(http.MethodPost, "/import", body)
		req.Header.Set("Content-Type", contentType)
		rr := env.do(req, env.session)

		require.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/expenses", rr.Header().Get("Location"))
		assert.Equal(t, []string{"Imported 2 rows."}, flashesFrom(rr))
		assert.Equal(t, int64(2), env.count(t))

		rows, err := env.repo.List(context.Background(), core.ListFilter{Query: "Mystery"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, core.Today(), rows[0].Date)
		assert.Equal(t, core.DefaultCategory, rows[0].Category)
		assert.False(t, rows[0].IsDeductible)
	})

	t.Run("non finite amount does not abort the batch", func(t *testing.T) {
		env := newTestEnv(t)
		data := "date,amount,category\n2024-01-01,10,Travel\n2024-01-02,nan,Travel\n2024-01-03,5,Travel\n"
		body, contentType := multipartBody(t, nil, "csv", "rows.csv", data)
		req := httptest.NewRequest(http.MethodPost, "/import", body)
		req.Header.Set("Content-Type", contentType)
		rr := env.do(req, env.session)

		require.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, []string{"Imported 3 rows."}, flashesFrom(rr))
		assert.Equal(t, int64(3), env.count(t))

		totals := env.get("/api/totals?year=2024")
		require.Equal(t, http.StatusOK, totals.Code)
		var got totalsResponse
		require.NoError(t, json.Unmarshal(totals.Body.Bytes(), &got))
		assert.Equal(t, 15.0, got.GrandTotal)
	})

	t.Run("import page", func(t *testing.T) {
		env := newTestEnv(t)
		rr := env.get("/import")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `enctype="multipart/form-data"`)
	})
}

func TestFlashConsumedOnRender(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	setFlash(rec, "Expense added.")
	var flash *http.Cookie
	for _, c := range rec.Result().Cookies() {
		flash = c
	}
	require.NotNil(t, flash)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/expenses", nil), env.session, flash)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Expense added.")

	var cleared bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == flashCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestParseListFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  core.ListFilter
	}{
		{name: "empty", query: "", want: core.ListFilter{}},
		{name: "all fields", query: "year=2024&month=3&category=Travel&q=uber", want: core.ListFilter{TaxYear: 2024, Month: 3, Category: "Travel", Query: "uber"}},
		{name: "invalid month dropped", query: "month=13", want: core.ListFilter{}},
		{name: "zero month dropped", query: "month=0", want: core.ListFilter{}},
		{name: "invalid year dropped", query: "year=20x4&month=12", want: core.ListFilter{Month: 12}},
		{name: "query trimmed", query: "q=%20%20coffee%20", want: core.ListFilter{Query: "coffee"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, parseListFilter(q))
		})
	}
}

func TestLocalReferer(t *testing.T) {
	tests := []struct {
		referer string
		want    string
	}{
		{referer: "", want: "/expenses"},
		{referer: "http://example.com/expenses?month=3", want: "/expenses?month=3"},
		{referer: "http://evil.example/phish", want: "/expenses"},
		{referer: "/charts", want: "/charts"},
		{referer: "::not a url", want: "/expenses"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/delete/1", nil)
		if tt.referer != "" {
			req.Header.Set("Referer", tt.referer)
		}
		assert.Equal(t, tt.want, localReferer(req, "/expenses"), tt.referer)
	}
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello world", sanitizeInput("  hello\x00 world\x1b "))
	assert.Equal(t, "a\tb\nc", sanitizeInput("a\tb\nc"))
}

func TestFormFields(t *testing.T) {
	got := formFields(url.Values{
		"amount":        {" 12 "},
		"notes":         {"x\x01y"},
		"is_deductible": {"0", "1"},
		"empty":         {},
	})
	assert.Equal(t, map[string]string{"amount": "12", "notes": "xy", "is_deductible": "1"}, got)
}
