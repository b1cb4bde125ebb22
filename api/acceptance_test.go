package api

import (
	"compress/gzip"
	"io"
	"log"
	"net/http"
	"strings"
	"testing"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"

	"github.com/fulldump/mpgfinder/catalog"
	"github.com/fulldump/mpgfinder/service"
)

func newCatalog(t *testing.T) *catalog.Catalog {
	c := catalog.New(&catalog.Config{
		SiteURL: "https://mpg.example.com",
		Logger:  log.New(io.Discard, "", 0),
	})
	t.Cleanup(func() {
		c.Stop()
	})
	return c
}

func newAPI(c *catalog.Catalog) *apitest.Apitest {
	s := service.NewService(c, service.Config{
		WindowInitial: 2,
		WindowBatch:   2,
	})

	b := Build(s, c, "test")
	b.WithInterceptors(
		Compression,
		RecoverFromPanic,
		PrettyErrorInterceptor,
	)

	return apitest.NewWithHandler(b)
}

func TestAcceptance(t *testing.T) {

	biff.Alternative("Setup", func(a *biff.A) {

		c := newCatalog(t)
		_, err := c.Reload([]byte(service.AcceptanceCSV))
		biff.AssertNil(err)
		biff.AssertEqual(c.GetStatus(), catalog.StatusOperating)

		api := newAPI(c)

		service.Acceptance(a, func(method, path string) *apitest.Request {
			return api.Request(method, "/v1"+path)
		})

	})
}

func TestUnavailable(t *testing.T) {

	c := newCatalog(t)
	api := newAPI(c)

	resp := api.Request("POST", "/v1/vehicles:find").WithBodyJson(map[string]any{}).Do()
	biff.AssertEqual(resp.StatusCode, http.StatusServiceUnavailable)
	biff.AssertEqual(resp.BodyJsonMap()["error"].(map[string]interface{})["message"], "temporary unavailable: opening")

	resp = api.Request("GET", "/v1/dataset").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusServiceUnavailable)

	// the dataset can be uploaded while opening
	resp = api.Request("POST", "/v1/dataset:reload").
		WithBodyString("make,model,year\nFord,Focus,2010\n").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusOK)

	resp = api.Request("GET", "/v1/vehicles/ford-focus-2010").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusOK)

	c.Stop()
	resp = api.Request("GET", "/v1/vehicles/ford-focus-2010").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusServiceUnavailable)
}

func TestMalformedJSON(t *testing.T) {

	c := newCatalog(t)
	_, err := c.Reload([]byte(service.AcceptanceCSV))
	biff.AssertNil(err)
	api := newAPI(c)

	resp := api.Request("POST", "/v1/vehicles:find").WithBodyString(`{"make":`).Do()
	biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	biff.AssertEqual(resp.BodyJsonMap()["error"].(map[string]interface{})["description"], "Malformed JSON")

	resp = api.Request("GET", "/v1/unknown").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusNotImplemented)
}

func TestCompression(t *testing.T) {

	c := newCatalog(t)
	_, err := c.Reload([]byte(service.AcceptanceCSV))
	biff.AssertNil(err)
	api := newAPI(c)

	resp := api.Request("POST", "/v1/vehicles:export").
		WithHeader("Accept-Encoding", "gzip").
		WithBodyJson(map[string]any{"make": "Honda"}).Do()
	biff.AssertEqual(resp.StatusCode, http.StatusOK)
	biff.AssertEqual(resp.Header.Get("Content-Encoding"), "gzip")

	gz, err := gzip.NewReader(strings.NewReader(resp.BodyString()))
	biff.AssertNil(err)
	body, err := io.ReadAll(gz)
	biff.AssertNil(err)
	biff.AssertEqual(string(body), ""+
		"make,model,year,fueltype1,city08,highway08,comb08,co2\n"+
		"Honda,Civic,2015,Regular Gasoline,30,39,33,\n"+
		"Honda,Accord,2014,Regular Gasoline,27,36,30,296\n")
}

func TestRelease(t *testing.T) {

	api := newAPI(newCatalog(t))

	resp := api.Request("GET", "/release").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusOK)
	biff.AssertEqual(resp.BodyString(), "\"test\"\n")

	resp = api.Request("GET", "/openapi.json").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusOK)
	biff.AssertEqual(resp.BodyJsonMap()["info"].(map[string]interface{})["title"], "mpgfinder")
}
