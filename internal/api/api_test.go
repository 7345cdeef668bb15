package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"calibration-qa-backend/internal/certificate"
	"calibration-qa-backend/internal/insight"
	"calibration-qa-backend/internal/mw"
	"calibration-qa-backend/internal/qualification"
	"calibration-qa-backend/internal/store"
	"calibration-qa-backend/internal/testutil"
	"calibration-qa-backend/internal/workflow"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeGenerator struct {
	text string
	err  error
}

func (f fakeGenerator) Generate(context.Context, string) (string, error) {
	return f.text, f.err
}

// setupRouter wires the full router over a seeded in-memory database. A nil
// gen leaves the insight service disabled.
func setupRouter(t *testing.T, gen insight.Generator) (*gin.Engine, store.Store) {
	t.Helper()
	s := store.NewGormStore(testutil.SetupSeededDB(t))
	log := zap.NewNop()

	tokens, err := mw.NewTokenIssuer("test-secret", "calibd-test", time.Hour)
	require.NoError(t, err)

	h := NewHandler(Deps{
		Store:         s,
		Workflow:      workflow.NewService(s, time.UTC, log),
		Certificates:  certificate.NewService(s, log),
		Qualification: qualification.NewService(s, time.UTC, log),
		Insight:       insight.NewService(gen, time.Minute, 5*time.Second, log),
		Tokens:        tokens,
		Location:      time.UTC,
		Log:           log,
	})
	return NewRouter(h, nil, cache.New(time.Minute, 2*time.Minute), log), s
}

func doJSON(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r http.Handler, userID string) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/auth/login", "", gin.H{"userId": userID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestLogin(t *testing.T) {
	r, _ := setupRouter(t, nil)

	w := doJSON(r, http.MethodPost, "/api/auth/login", "", gin.H{"userId": "99"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := login(t, r, "4")
	w = doJSON(r, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		Name      string `json:"name"`
		Role      string `json:"role"`
		RoleLabel string `json:"roleLabel"`
	}
	decode(t, w, &me)
	assert.Equal(t, "Samsul", me.Name)
	assert.Equal(t, "SUPERVISOR", me.Role)
	assert.Equal(t, "Supervisor", me.RoleLabel)

	w = doJSON(r, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboardStats(t *testing.T) {
	r, _ := setupRouter(t, nil)
	token := login(t, r, "1")

	w := doJSON(r, http.MethodGet, "/api/dashboard/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Total      int     `json:"total"`
		Due        int     `json:"due"`
		InProcess  int     `json:"inProcess"`
		Compliance float64 `json:"compliance"`
	}
	decode(t, w, &stats)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Due)
	assert.Equal(t, 0, stats.InProcess)
	assert.Equal(t, 66.7, stats.Compliance)

	w = doJSON(r, http.MethodGet, "/api/dashboard/stats", token, nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	// Starting a job is a mutation and flushes the cache.
	w = doJSON(r, http.MethodPost, "/api/jobs", token, gin.H{"instrumentId": "INS-001"})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodGet, "/api/dashboard/stats", token, nil)
	assert.Empty(t, w.Header().Get("X-Cache"))
	decode(t, w, &stats)
	assert.Equal(t, 1, stats.InProcess)
}

func TestInsight(t *testing.T) {
	t.Run("generated", func(t *testing.T) {
		r, _ := setupRouter(t, fakeGenerator{text: "Semua alat stabil. PRES-05 perlu dikalibrasi."})
		token := login(t, r, "1")

		w := doJSON(r, http.MethodGet, "/api/dashboard/insight", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Insight   string `json:"insight"`
			Headline  string `json:"headline"`
			Available bool   `json:"available"`
		}
		decode(t, w, &resp)
		assert.True(t, resp.Available)
		assert.Equal(t, "Semua alat stabil", resp.Headline)
	})

	t.Run("disabled", func(t *testing.T) {
		r, _ := setupRouter(t, nil)
		token := login(t, r, "1")

		w := doJSON(r, http.MethodGet, "/api/dashboard/insight", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Insight   string `json:"insight"`
			Available bool   `json:"available"`
		}
		decode(t, w, &resp)
		assert.False(t, resp.Available)
		assert.Equal(t, insight.Fallback, resp.Insight)
	})
}

func TestInstrumentLifecycle(t *testing.T) {
	r, _ := setupRouter(t, nil)
	token := login(t, r, "6")

	w := doJSON(r, http.MethodPost, "/api/instruments", token, gin.H{"name": "pH Meter"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var verr struct {
		Fields map[string]string `json:"fields"`
	}
	decode(t, w, &verr)
	assert.Contains(t, verr.Fields, "code")
	assert.Contains(t, verr.Fields, "nextCalibration")

	body := gin.H{
		"code":            "PH-02",
		"name":            "pH Meter",
		"location":        "Lab QC 2",
		"department":      "Quality Control",
		"nextCalibration": "2099-01-01",
	}
	w = doJSON(r, http.MethodPost, "/api/instruments", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		Parameter string `json:"parameter"`
	}
	decode(t, w, &created)
	assert.Regexp(t, `^INS-\d{4}$`, created.ID)
	assert.Equal(t, "OPERATIONAL", created.Status)
	assert.Equal(t, "Suhu", created.Parameter)

	w = doJSON(r, http.MethodPost, "/api/instruments", token, body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	decode(t, w, &verr)
	assert.Contains(t, verr.Fields, "code")

	w = doJSON(r, http.MethodGet, "/api/instruments?search=ph", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int64 `json:"total"`
	}
	decode(t, w, &list)
	assert.EqualValues(t, 1, list.Total)

	w = doJSON(r, http.MethodGet, "/api/instruments?status=BROKEN", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/instruments/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(r, http.MethodGet, "/api/instruments/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInstrumentHistory(t *testing.T) {
	r, _ := setupRouter(t, nil)
	token := login(t, r, "1")

	w := doJSON(r, http.MethodGet, "/api/instruments/INS-001/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []struct {
		ID string `json:"id"`
	}
	decode(t, w, &history)
	assert.Len(t, history, 3)
}

func TestWorkflowAndApproval(t *testing.T) {
	r, _ := setupRouter(t, nil)
	engineer := login(t, r, "1")

	w := doJSON(r, http.MethodPost, "/api/jobs", engineer, gin.H{"instrumentId": "INS-001"})
	require.Equal(t, http.StatusOK, w.Code)
	var job struct {
		ID      string `json:"id"`
		Step    int    `json:"step"`
		Officer string `json:"officer"`
	}
	decode(t, w, &job)
	assert.Equal(t, 1, job.Step)
	assert.Equal(t, "Juan", job.Officer)

	// Skipping ahead is refused.
	w = doJSON(r, http.MethodPost, "/api/jobs/"+job.ID+"/complete", engineer, gin.H{"conclusion": "MS"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodPost, "/api/jobs/"+job.ID+"/condition", engineer,
		gin.H{"calDate": "2024-04-10", "envTemp": 21.8, "envRH": 48})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/jobs/"+job.ID+"/readings", engineer, gin.H{
		"readings": []gin.H{{"testPoint": 25, "asFound": 25.3, "asLeft": 25.1}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/jobs/"+job.ID+"/complete", engineer, gin.H{"conclusion": "MS"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rec struct {
		ID            string `json:"id"`
		CertificateNo string `json:"certificateNo"`
	}
	decode(t, w, &rec)
	assert.Equal(t, "CAL-TEMP-01-04", rec.ID)

	w = doJSON(r, http.MethodGet, "/api/certificates/"+rec.ID, engineer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc struct {
		Number    string `json:"number"`
		Statement string `json:"statement"`
		Digest    string `json:"digest"`
	}
	decode(t, w, &doc)
	assert.Equal(t, "CERT/2024/04/TEMP-01-04", doc.Number)
	assert.Equal(t, certificate.StatementFit, doc.Statement)

	w = doJSON(r, http.MethodGet, "/api/certificates/"+rec.ID+"/verify?digest="+doc.Digest, engineer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":true`)

	w = doJSON(r, http.MethodPost, "/api/certificates/"+rec.ID+"/approve", engineer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	supervisor := login(t, r, "4")
	w = doJSON(r, http.MethodPost, "/api/certificates/"+rec.ID+"/approve", supervisor, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"approvedBy":"Samsul"`)

	w = doJSON(r, http.MethodPost, "/api/certificates/"+rec.ID+"/approve", supervisor, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodGet, "/api/certificates?month=4&year=2024", engineer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Stats certificate.Stats `json:"stats"`
	}
	decode(t, w, &list)
	assert.Equal(t, 1, list.Stats.Total)
	assert.Equal(t, 0, list.Stats.Pending)
}

func TestSchedule(t *testing.T) {
	r, s := setupRouter(t, nil)
	token := login(t, r, "3")

	w := doJSON(r, http.MethodGet, "/api/schedule?month=2&year=2024", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "PRES-05")
	assert.NotContains(t, w.Body.String(), "TEMP-01")

	w = doJSON(r, http.MethodGet, "/api/schedule?month=13", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/schedule/bulk", token, gin.H{"ids": []string{}, "date": "2024-07-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/schedule/bulk", token,
		gin.H{"ids": []string{"INS-001", "INS-003"}, "date": "2024-07-01"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated":2}`, w.Body.String())

	inst, err := s.GetInstrument(context.Background(), "INS-003")
	require.NoError(t, err)
	assert.Equal(t, "2024-07-01", inst.NextCalibration.String())
}

func TestScheduleImport(t *testing.T) {
	r, s := setupRouter(t, nil)
	token := login(t, r, "3")

	csv := "code,date\nTEMP-01,2024-05-01\nNOPE-9,2024-05-01\n\nWGH-12,\n"
	post := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(csv))
		req.Header.Set("Content-Type", "text/csv")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post("/api/schedule/import/preview")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var preview struct {
		Valid   int `json:"valid"`
		Invalid int `json:"invalid"`
	}
	decode(t, w, &preview)
	assert.Equal(t, 2, preview.Valid)
	assert.Equal(t, 1, preview.Invalid)

	w = post("/api/schedule/import")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var commit struct {
		Applied int64 `json:"applied"`
		Skipped int   `json:"skipped"`
	}
	decode(t, w, &commit)
	assert.EqualValues(t, 2, commit.Applied)
	assert.Equal(t, 1, commit.Skipped)

	inst, err := s.GetInstrument(context.Background(), "INS-003")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", inst.NextCalibration.String())

	w = doJSON(r, http.MethodGet, "/api/schedule/import/template", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
}

func TestAuditAccess(t *testing.T) {
	r, _ := setupRouter(t, nil)

	engineer := login(t, r, "1")
	w := doJSON(r, http.MethodGet, "/api/audit", engineer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	qa := login(t, r, "5")
	w = doJSON(r, http.MethodPost, "/api/audit", qa, gin.H{"details": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/audit", qa, gin.H{"details": "Review bulanan selesai"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"isManual":true`)

	w = doJSON(r, http.MethodGet, "/api/audit?action=CATATAN_MANUAL", qa, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
		Items []struct {
			User string `json:"user"`
		} `json:"items"`
	}
	decode(t, w, &page)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, "QA Admin", page.Items[0].User)

	w = doJSON(r, http.MethodGet, "/api/audit/export", qa, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "id,timestamp,user,action,details\n"))
	assert.Contains(t, w.Body.String(), "Review bulanan selesai")
}

func TestSettings(t *testing.T) {
	r, _ := setupRouter(t, nil)
	admin := login(t, r, "6")

	w := doJSON(r, http.MethodPut, "/api/settings", admin, gin.H{"defaultIntervalMonths": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPut, "/api/settings", admin, gin.H{"defaultIntervalMonths": 12})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodGet, "/api/settings", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings struct {
		InstitutionName       string `json:"institutionName"`
		DefaultIntervalMonths int    `json:"defaultIntervalMonths"`
	}
	decode(t, w, &settings)
	assert.Equal(t, 12, settings.DefaultIntervalMonths)
	assert.Equal(t, "Laboratorium QA Pharma Central", settings.InstitutionName)
}

func TestQualification(t *testing.T) {
	r, _ := setupRouter(t, nil)
	token := login(t, r, "5")

	w := doJSON(r, http.MethodGet, "/api/qualification/protocols?stage=XX", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/qualification/protocols", token, gin.H{
		"stage":              "OQ",
		"title":              "Uji Alarm Suhu",
		"procedure":          "Naikkan suhu di atas batas",
		"acceptanceCriteria": "Alarm berbunyi dalam 60 detik",
		"tester":             "QA Admin",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, w, &item)
	assert.Regexp(t, `^OQ-\d{3}$`, item.ID)
	assert.Equal(t, "PENDING", item.Status)

	w = doJSON(r, http.MethodGet, "/api/qualification/progress", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var progress []qualification.StageProgress
	decode(t, w, &progress)
	require.Len(t, progress, 4)
	assert.Equal(t, 2, progress[1].Completed)
	assert.Equal(t, 1, progress[2].Total)

	w = doJSON(r, http.MethodDelete, "/api/qualification/protocols/"+item.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestScheduleImport_TooLarge(t *testing.T) {
	r, s := setupRouter(t, nil)
	token := login(t, r, "3")

	row := "TEMP-01,2024-05-01\n"
	oversized := "code,date\n" + strings.Repeat(row, maxUploadBytes/len(row)+1)
	require.Greater(t, len(oversized), maxUploadBytes)

	send := func(req *http.Request) *httptest.ResponseRecorder {
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("raw body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/schedule/import", strings.NewReader(oversized))
		req.Header.Set("Content-Type", "text/csv")
		assert.Equal(t, http.StatusRequestEntityTooLarge, send(req).Code)
	})

	t.Run("multipart", func(t *testing.T) {
		var body bytes.Buffer
		mpw := multipart.NewWriter(&body)
		part, err := mpw.CreateFormFile("file", "schedule.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(oversized))
		require.NoError(t, err)
		require.NoError(t, mpw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/schedule/import", &body)
		req.Header.Set("Content-Type", mpw.FormDataContentType())
		assert.Equal(t, http.StatusRequestEntityTooLarge, send(req).Code)
	})

	t.Run("exactly at the limit is read whole", func(t *testing.T) {
		data, err := readLimited(strings.NewReader(oversized[:maxUploadBytes]))
		require.NoError(t, err)
		assert.Len(t, data, maxUploadBytes)
	})

	inst, err := s.GetInstrument(context.Background(), "INS-001")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-15", inst.NextCalibration.String(), "nothing is applied")
}

func TestListCertificates_MonthOnly(t *testing.T) {
	r, _ := setupRouter(t, nil)
	token := login(t, r, "1")

	w := doJSON(r, http.MethodGet, "/api/certificates?month=4", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []struct {
			Date string `json:"date"`
		} `json:"items"`
		Stats certificate.Stats `json:"stats"`
	}
	decode(t, w, &list)
	assert.Equal(t, 3, list.Stats.Total)
	for _, item := range list.Items {
		assert.Equal(t, "2023-04-10", item.Date)
	}
}
