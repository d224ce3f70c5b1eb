package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aapslab/report-atlas/pkg/models/api"
	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/services/report"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReports struct {
	mock.Mock
}

func (m *mockReports) Entities(ctx context.Context) ([]domain.Entity, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Entity), args.Error(1)
}

func (m *mockReports) Orders(ctx context.Context, code string, year int) ([]int, error) {
	args := m.Called(ctx, code, year)
	return args.Get(0).([]int), args.Error(1)
}

func (m *mockReports) OpenPlanSession(ctx context.Context, sel report.Selection) (*report.Session, error) {
	args := m.Called(ctx, sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Session), args.Error(1)
}

func (m *mockReports) GeneratePlanReport(ctx context.Context, s *report.Session, req report.PlanRequest) (*report.Output, error) {
	args := m.Called(ctx, s, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Output), args.Error(1)
}

func (m *mockReports) GenerateAnnualReport(ctx context.Context, req report.AnnualRequest) (*report.Output, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Output), args.Error(1)
}

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) Get(ctx context.Context) (*domain.Profile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *mockProfiles) Save(ctx context.Context, p domain.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func TestWebAPI_Endpoints(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))

	reports := new(mockReports)
	profiles := new(mockProfiles)

	config := Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Dependencies: Dependencies{
			Reports:  reports,
			Profiles: profiles,
			Logger:   logger,
		},
	}
	router := ConfigureRouter(config)
	testServer := httptest.NewServer(router)
	defer testServer.Close()

	tests := []struct {
		name           string
		path           string
		setupMocks     func()
		expectedStatus int
		expected       interface{}
		parseResponse  func([]byte) (interface{}, error)
	}{
		{
			name: "ListEntities",
			path: "/api/v1/entities",
			setupMocks: func() {
				reports.On("Entities", mock.Anything).
					Return([]domain.Entity{{Code: "SEMAPA", Name: "SEMAPA", Category: domain.CategoryA, State: "Cochabamba", Type: "Empresa Municipal"}}, nil)
			},
			expectedStatus: http.StatusOK,
			expected: []api.Entity{{
				Code: "SEMAPA", Name: "SEMAPA", Category: "A", State: "Cochabamba", Type: "Empresa Municipal", Regime: "municipal",
			}},
			parseResponse: unmarshalResponse[[]api.Entity](),
		},
		{
			name: "ListOrders",
			path: "/api/v1/entities/SEMAPA/orders?year=2024",
			setupMocks: func() {
				reports.On("Orders", mock.Anything, "SEMAPA", 2024).Return([]int{1, 2, 3}, nil)
			},
			expectedStatus: http.StatusOK,
			expected:       []int{1, 2, 3},
			parseResponse:  unmarshalResponse[[]int](),
		},
		{
			name: "GetProfile",
			path: "/api/v1/profile",
			setupMocks: func() {
				profiles.On("Get", mock.Anything).Return(&domain.Profile{
					Name: "Ana", Qualification: domain.QualificationEconomist, City: "La Paz", LastReportNumber: 9,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expected:       api.Profile{Name: "Ana", Qualification: "economist", City: "La Paz", LastReportNumber: 9},
			parseResponse:  unmarshalResponse[api.Profile](),
		},
		{
			name:           "UnknownSession",
			path:           "/api/v1/sessions/missing",
			setupMocks:     func() {},
			expectedStatus: http.StatusNotFound,
			expected:       api.Error{Error: "session not found"},
			parseResponse:  unmarshalResponse[api.Error](),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMocks()
			resp, err := http.Get(testServer.URL + tc.path)
			require.NoError(t, err, "Failed to send request")
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "Failed to read response body")

			actual, err := tc.parseResponse(body)
			require.NoError(t, err, "Failed to parse response")

			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestWebAPI_RecoversPanics(t *testing.T) {
	reports := new(mockReports)
	reports.On("Entities", mock.Anything).Run(func(mock.Arguments) { panic("boom") })

	router := ConfigureRouter(Config{Dependencies: Dependencies{
		Reports:  reports,
		Profiles: new(mockProfiles),
		Logger:   zerolog.Nop(),
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entities", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestNewWebAPI_DefaultShutdownTimeout(t *testing.T) {
	w := NewWebAPI(Config{Addr: ":0", Dependencies: Dependencies{Logger: zerolog.Nop()}})
	assert.Equal(t, defaultShutdownTimeout, w.shutdownTimeout)
	assert.Equal(t, ":0", w.server.Addr)
}

func unmarshalResponse[T any]() func([]byte) (interface{}, error) {
	return func(data []byte) (interface{}, error) {
		var response T
		err := json.Unmarshal(data, &response)
		return response, err
	}
}
