package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oref-labs/placement-api/internal/repository"
	"github.com/oref-labs/placement-api/internal/service"
	"github.com/oref-labs/placement-api/pkg/config"
)

type fakeSheetSource struct {
	tabs map[string][][]string
	err  error
}

func (f *fakeSheetSource) Values(ctx context.Context, tab string) ([][]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	grid, ok := f.tabs[tab]
	if !ok {
		return nil, errors.New("tab not found")
	}
	return grid, nil
}

func newReferenceHandler(source *fakeSheetSource) *ReferenceHandler {
	cache := service.NewCacheService(repository.NewMemoryCacheRepository(), nil, 5*time.Minute, nil)
	refs := service.NewReferenceService(source, cache, config.FieldMap{
		RosterTab:         "Students",
		RosterNameColumn:  "student name",
		RosterClassColumn: "class",
		TestsTab:          "Tests",
	}, []string{"5785", "5784"}, nil)
	return NewReferenceHandler(refs)
}

func newReferenceTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, recorder
}

func TestReferenceHandlerRoster(t *testing.T) {
	handler := newReferenceHandler(&fakeSheetSource{tabs: map[string][][]string{
		"Students": {
			{"student name", "class"},
			{"Dana Levi", "9a"},
			{"Omri Peled", "9b"},
		},
	}})

	c, recorder := newReferenceTestContext(http.MethodGet, "/reference/roster")
	handler.Roster(c)

	require.Equal(t, http.StatusOK, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.Empty(t, envelope.Warnings)
	rows, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, rows, 2)
}

func TestReferenceHandlerRosterClassFilter(t *testing.T) {
	handler := newReferenceHandler(&fakeSheetSource{tabs: map[string][][]string{
		"Students": {
			{"student name", "class"},
			{"Dana Levi", "9a"},
			{"Omri Peled", "9b"},
		},
	}})

	c, recorder := newReferenceTestContext(http.MethodGet, "/reference/roster?class=9b")
	handler.Roster(c)

	require.Equal(t, http.StatusOK, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	rows, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, rows, 1)
}

func TestReferenceHandlerRosterUpstreamDown(t *testing.T) {
	handler := newReferenceHandler(&fakeSheetSource{err: errors.New("api unreachable")})

	c, recorder := newReferenceTestContext(http.MethodGet, "/reference/roster")
	handler.Roster(c)

	// degraded, not failed
	require.Equal(t, http.StatusOK, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	require.Len(t, envelope.Warnings, 1)
	assert.Contains(t, envelope.Warnings[0], "roster unavailable")
}

func TestReferenceHandlerList(t *testing.T) {
	handler := newReferenceHandler(&fakeSheetSource{tabs: map[string][][]string{
		"Tests": {{"test id"}, {"T-1"}, {"T-2"}},
	}})

	c, recorder := newReferenceTestContext(http.MethodGet, "/reference/tests")
	c.Params = gin.Params{{Key: "list", Value: "tests"}}
	handler.List(c)

	require.Equal(t, http.StatusOK, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	values, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"T-1", "T-2"}, values)
}

func TestReferenceHandlerListUnknownName(t *testing.T) {
	handler := newReferenceHandler(&fakeSheetSource{})

	c, recorder := newReferenceTestContext(http.MethodGet, "/reference/teachers")
	c.Params = gin.Params{{Key: "list", Value: "teachers"}}
	handler.List(c)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestReferenceHandlerRefresh(t *testing.T) {
	handler := newReferenceHandler(&fakeSheetSource{tabs: map[string][][]string{
		"Tests": {{"test id"}, {"T-1"}},
	}})

	c, recorder := newReferenceTestContext(http.MethodPost, "/reference/refresh")
	handler.Refresh(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, recorder.Code)
}
