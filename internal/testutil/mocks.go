package testutil

import (
	"context"
	"math/big"
	"net/http/httptest"
	"testing"

	"github.com/cyphera/cyphera-relayer/internal/types/api/requests"
	"github.com/cyphera/cyphera-relayer/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

// MockSponsorshipProvider provides a mock for the sponsorship pipeline
type MockSponsorshipProvider struct {
	mock.Mock
}

func (m *MockSponsorshipProvider) SendTransaction(ctx context.Context, request requests.TransactionRequest) (common.Hash, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(common.Hash), args.Error(1)
}

func (m *MockSponsorshipProvider) ChainID() *big.Int {
	args := m.Called()
	return args.Get(0).(*big.Int)
}

func (m *MockSponsorshipProvider) Capability() business.DelegationCapability {
	args := m.Called()
	return args.Get(0).(business.DelegationCapability)
}

// MockPinger provides a mock for node reachability checks
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// TestContext creates a test Gin context
func TestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)

	return ctx, recorder
}

// AssertStatusCode checks HTTP status code
func AssertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()

	if recorder.Code != expected {
		t.Errorf("Expected status code %d, got %d. Response body: %s",
			expected, recorder.Code, recorder.Body.String())
	}
}
