package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-llm/internal/domain"
	"companion-llm/internal/service"
)

type capturingAuditRepo struct {
	mu   sync.Mutex
	recs []domain.AuditRecord
}

func (f *capturingAuditRepo) Append(_ context.Context, rec domain.AuditRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, rec)
	return nil
}

func (f *capturingAuditRepo) Stats(_ context.Context) (domain.AuditStats, error) {
	return domain.AuditStats{}, nil
}

func adminTestRouter(repo *capturingAuditRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	h := NewAdminHandler(
		logger,
		service.NewContentClassifier(service.ClassifierConfig{}, nil, nil),
		service.NewContentRouter(),
		service.NewAuditService(repo, logger),
	)
	r := gin.New()
	auth := AuthMiddleware(AuthConfig{DebugAuthEnabled: true}, newFakeUserRepo())
	r.POST("/admin/classify", auth, h.Classify)
	return r
}

func TestAdminClassifyReturnsRouteAndAudits(t *testing.T) {
	repo := &capturingAuditRepo{}
	r := adminTestRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/classify", strings.NewReader(`{"text":"i'm 16 years old"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Debug-User", "dev-1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), string(domain.RouteHardRefusal)) {
		t.Fatalf("response must carry the resolved route: %s", w.Body.String())
	}

	if len(repo.recs) != 1 {
		t.Fatalf("expected one audit record, got %d", len(repo.recs))
	}
	rec := repo.recs[0]
	if rec.Label != domain.LabelMinorRisk {
		t.Fatalf("expected MINOR_RISK audited, got %s", rec.Label)
	}
	if rec.ConversationID != uuid.Nil {
		t.Fatalf("debug classification must audit with nil conversation id, got %s", rec.ConversationID)
	}
	if rec.UserID == uuid.Nil {
		t.Fatalf("audit record must carry the authenticated user")
	}
}

func TestAdminClassifyRequiresAuth(t *testing.T) {
	r := adminTestRouter(&capturingAuditRepo{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/classify", strings.NewReader(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
