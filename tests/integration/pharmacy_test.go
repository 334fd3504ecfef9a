//go:build integration

package integration

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"testing"

	"github.com/rxdesk/pharmacy-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPharmacy struct {
	ID            string   `json:"id"`
	UserID        string   `json:"userId"`
	PharmacyName  string   `json:"pharmacyName"`
	Email         string   `json:"email"`
	WorkingDays   []string `json:"workingDays"`
	GSTPercentage string   `json:"gstPercentage"`
	InvoicePrefix string   `json:"invoicePrefix"`
	Logo          *string  `json:"logo"`
}

func setupPharmacy(t *testing.T, client *testutil.Client, body map[string]any) testPharmacy {
	t.Helper()

	resp, err := client.POST("/api/auth/pharmacy-setup", body)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data testPharmacy `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

func TestPharmacy_Setup_JSON(t *testing.T) {
	client, admin := adminClient(t, "Setup Owner")

	p := setupPharmacy(t, client, map[string]any{
		"pharmacyName": "Green Cross Pharmacy",
		"phone":        "9876543210",
		"email":        "Shop@GreenCross.test",
		"city":         "Pune",
		"workingDays":  []string{"Mon", "Tue", "Mon", " Wed "},
	})
	assert.Equal(t, admin.ID, p.UserID)
	assert.Equal(t, "shop@greencross.test", p.Email)
	assert.Equal(t, []string{"Mon", "Tue", "Wed"}, p.WorkingDays)
	assert.Equal(t, "0", p.GSTPercentage)
	assert.Equal(t, "INV", p.InvoicePrefix)
	assert.Nil(t, p.Logo)

	t.Run("second setup conflicts", func(t *testing.T) {
		client.SetT(t)
		resp, err := client.POST("/api/auth/pharmacy-setup", map[string]any{
			"pharmacyName": "Another Shop",
			"phone":        "9876543210",
			"email":        "other@shop.test",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("get returns the profile", func(t *testing.T) {
		client.SetT(t)
		resp, err := client.GET("/api/pharmacy")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Data testPharmacy `json:"data"`
		}
		testutil.DecodeJSON(t, resp, &result)
		assert.Equal(t, p.ID, result.Data.ID)
	})

	t.Run("staff see their admin's pharmacy", func(t *testing.T) {
		client.SetT(t)
		staff, _ := staffClient(t, client, "Pharmacist")

		resp, err := staff.GET("/api/pharmacy")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Data testPharmacy `json:"data"`
		}
		testutil.DecodeJSON(t, resp, &result)
		assert.Equal(t, p.ID, result.Data.ID)

		resp, err = staff.POST("/api/auth/pharmacy-setup", map[string]any{
			"pharmacyName": "Staff Shop",
			"phone":        "9876543210",
			"email":        "staff@shop.test",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestPharmacy_Get_NotSetUp(t *testing.T) {
	client, _ := adminClient(t, "No Shop Owner")

	resp, err := client.GET("/api/pharmacy")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestPharmacy_Setup_InvalidWorkingDays(t *testing.T) {
	client, _ := adminClient(t, "Bad Days Owner")

	resp, err := client.POST("/api/auth/pharmacy-setup", map[string]any{
		"pharmacyName": "Odd Days",
		"phone":        "9876543210",
		"email":        "odd@shop.test",
		"workingDays":  42,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestPharmacy_Setup_MultipartWithLogo(t *testing.T) {
	client, _ := adminClient(t, "Logo Owner")

	var logo bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 13, G: 148, B: 136, A: 255})
	require.NoError(t, png.Encode(&logo, img))

	resp, err := client.POSTMultipart("/api/auth/pharmacy-setup", map[string]string{
		"pharmacyName":  "Logo Pharmacy",
		"phone":         "9876543210",
		"email":         "logo@shop.test",
		"workingDays":   "Mon, Tue, Fri",
		"gstPercentage": "12",
		"invoicePrefix": "LP",
	}, testutil.FormFile{Field: "logo", Filename: "logo.png", Content: logo.Bytes()})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data testPharmacy `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)

	assert.Equal(t, []string{"Mon", "Tue", "Fri"}, result.Data.WorkingDays)
	assert.Equal(t, "12", result.Data.GSTPercentage)
	assert.Equal(t, "LP", result.Data.InvoicePrefix)
	require.NotNil(t, result.Data.Logo)

	resp, err = http.Get(testServer.URL + *result.Data.Logo)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	served, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, logo.Bytes(), served)
}

func TestPharmacy_Setup_RejectsNonImageLogo(t *testing.T) {
	client, _ := adminClient(t, "Text Logo Owner")

	resp, err := client.POSTMultipart("/api/auth/pharmacy-setup", map[string]string{
		"pharmacyName": "Text Logo",
		"phone":        "9876543210",
		"email":        "text@shop.test",
	}, testutil.FormFile{Field: "logo", Filename: "logo.png", Content: []byte("definitely not an image")})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Nothing was stored, so setup can be retried.
	resp2, err := client.GET("/api/pharmacy")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
	resp2.Body.Close()
}
