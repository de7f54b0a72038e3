package home_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/councilhub/internal/app/features/home"
	"github.com/dalemusser/councilhub/internal/testutil"
	"go.uber.org/zap"
)

func TestServeRoot_SignedInGoesToDashboard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := home.NewHandler(db, zap.NewNop())

	req := testutil.WithUser(httptest.NewRequest(http.MethodGet, "/", nil), testutil.MemberUser())
	rec := httptest.NewRecorder()
	h.ServeRoot(rec, req)

	testutil.AssertRedirect(t, rec, "/dashboard")
}
