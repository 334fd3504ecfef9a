//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/rxdesk/pharmacy-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCustomer struct {
	ID     string  `json:"id"`
	Code   string  `json:"customerId"`
	Name   string  `json:"name"`
	Mobile string  `json:"mobile"`
	Email  *string `json:"email"`
	Avatar string  `json:"avatar"`
	Notes  *string `json:"notes"`
}

type customerPage struct {
	Data struct {
		Customers  []testCustomer `json:"customers"`
		Pagination struct {
			Total int `json:"total"`
			Pages int `json:"pages"`
		} `json:"pagination"`
	} `json:"data"`
}

func addCustomer(t *testing.T, client *testutil.Client, name, mobile string) testCustomer {
	t.Helper()

	resp, err := client.POST("/api/customers", map[string]string{
		"name":   name,
		"mobile": mobile,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data testCustomer `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

func listCustomers(t *testing.T, client *testutil.Client, query url.Values) customerPage {
	t.Helper()

	resp, err := client.GET("/api/customers?" + query.Encode())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page customerPage
	testutil.DecodeJSON(t, resp, &page)
	return page
}

func TestCustomers_Create(t *testing.T) {
	admin, _ := adminClient(t, "Customer Owner")

	resp, err := admin.POST("/api/customers", map[string]string{
		"name":   "Meena Iyer",
		"mobile": "9000000001",
		"email":  "Meena@Example.com",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data testCustomer `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	c := result.Data

	assert.Regexp(t, `^CUST\d{3,}$`, c.Code)
	require.NotNil(t, c.Email)
	assert.Equal(t, "meena@example.com", *c.Email)
	assert.Contains(t, c.Avatar, "ui-avatars.com")
	assert.Nil(t, c.Notes)

	resp, err = admin.POST("/api/customers", map[string]string{"name": "No Mobile"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCustomers_List_SearchAndPaging(t *testing.T) {
	admin, _ := adminClient(t, "Busy Owner")
	for i := 1; i <= 12; i++ {
		addCustomer(t, admin, fmt.Sprintf("Regular %02d", i), fmt.Sprintf("91000%05d", i))
	}
	addCustomer(t, admin, "Walk In", "8888800000")

	first := listCustomers(t, admin, url.Values{})
	assert.Equal(t, 13, first.Data.Pagination.Total)
	assert.Equal(t, 2, first.Data.Pagination.Pages)
	require.Len(t, first.Data.Customers, 10)
	assert.Equal(t, "Walk In", first.Data.Customers[0].Name, "newest first")

	second := listCustomers(t, admin, url.Values{"page": {"2"}})
	assert.Len(t, second.Data.Customers, 3)

	byName := listCustomers(t, admin, url.Values{"search": {"regular 1"}})
	assert.Equal(t, 3, byName.Data.Pagination.Total)

	byMobile := listCustomers(t, admin, url.Values{"search": {"88888"}})
	require.Len(t, byMobile.Data.Customers, 1)
	assert.Equal(t, "Walk In", byMobile.Data.Customers[0].Name)

	wildcard := listCustomers(t, admin, url.Values{"search": {"%"}})
	assert.Equal(t, 0, wildcard.Data.Pagination.Total)
}

func TestCustomers_Notes(t *testing.T) {
	admin, _ := adminClient(t, "Notes Owner")
	c := addCustomer(t, admin, "Allergic Patient", "9000000002")

	resp, err := admin.PUT("/api/customers/"+c.ID+"/notes", map[string]string{"notes": "Allergic to penicillin"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = admin.GET("/api/customers/" + c.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Data testCustomer `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &got)
	require.NotNil(t, got.Data.Notes)
	assert.Equal(t, "Allergic to penicillin", *got.Data.Notes)

	resp, err = admin.PUT("/api/customers/"+c.ID+"/notes", map[string]string{"notes": "  "})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &got)
	assert.Nil(t, got.Data.Notes)
}

func TestCustomers_TenantIsolation(t *testing.T) {
	adminA, _ := adminClient(t, "Customers A")
	adminB, _ := adminClient(t, "Customers B")
	c := addCustomer(t, adminA, "Loyal Customer", "9000000003")

	resp, err := adminB.GET("/api/customers/" + c.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = adminB.PUT("/api/customers/"+c.ID+"/notes", map[string]string{"notes": "not yours"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	assert.Equal(t, 0, listCustomers(t, adminB, url.Values{}).Data.Pagination.Total)

	cashier, _ := staffClient(t, adminA, "Cashier")
	assert.Equal(t, 1, listCustomers(t, cashier, url.Values{}).Data.Pagination.Total)
}
