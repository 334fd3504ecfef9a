//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rxdesk/pharmacy-api/internal/testutil"
	"github.com/stretchr/testify/require"
)

const testPassword = "secret123"

// randomEmail returns a unique address so tests never collide on the shared database.
func randomEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

type testUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type otpResult struct {
	Data struct {
		Message   string `json:"message"`
		ExpiresAt string `json:"expiresAt"`
		OTP       string `json:"otp"`
	} `json:"data"`
}

// registerAdmin registers a pharmacy admin and returns it.
func registerAdmin(t *testing.T, client *testutil.Client, name string) testUser {
	t.Helper()

	resp, err := client.POST("/api/auth/register", map[string]string{
		"name":     name,
		"email":    randomEmail("admin"),
		"password": testPassword,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data testUser `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

// adminClient registers a pharmacy admin and returns a client logged in as them.
func adminClient(t *testing.T, name string) (*testutil.Client, testUser) {
	t.Helper()

	client := newTestClient(t)
	admin := registerAdmin(t, client, name)
	client.LoginAs(t, admin.Email, testPassword)
	return client, admin
}

// createStaff adds a staff member under the admin behind client and returns it.
func createStaff(t *testing.T, client *testutil.Client, staffRole string) testUser {
	t.Helper()

	resp, err := client.POST("/api/staff", map[string]string{
		"name":      "Ravi Kumar",
		"email":     randomEmail("staff"),
		"phone":     "9876543210",
		"staffRole": staffRole,
		"password":  testPassword,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data testUser `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

// staffClient creates a staff member and returns a client logged in as them.
func staffClient(t *testing.T, admin *testutil.Client, staffRole string) (*testutil.Client, testUser) {
	t.Helper()

	member := createStaff(t, admin, staffRole)
	client := admin.Clone()
	client.LoginAs(t, member.Email, testPassword)
	return client, member
}

type testProduct struct {
	ID            string `json:"id"`
	Code          string `json:"productId"`
	Name          string `json:"productName"`
	Category      string `json:"category"`
	StockQuantity int    `json:"stockQuantity"`
	SellingPrice  string `json:"sellingPrice"`
	Status        string `json:"status"`
}

// addProduct adds a product with the given expiry and quantity.
func addProduct(t *testing.T, client *testutil.Client, name, expiry string, quantity int) testProduct {
	t.Helper()

	resp, err := client.POST("/api/inventory/products", map[string]any{
		"productName":   name,
		"category":      "painkiller",
		"batchNumber":   "B-" + uuid.NewString()[:8],
		"boxNumber":     "A1",
		"expiryDate":    expiry,
		"purchasePrice": "10.50",
		"sellingPrice":  "15.00",
		"stockQuantity": quantity,
		"supplier":      "MedSupply Co",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "add product")

	var result struct {
		Data testProduct `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

// requestOTP calls an OTP issuing endpoint and returns the decoded result.
func requestOTP(t *testing.T, client *testutil.Client, path string, body map[string]string) otpResult {
	t.Helper()

	resp, err := client.POST(path, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result otpResult
	testutil.DecodeJSON(t, resp, &result)
	return result
}
