package service

import (
	"net/http"
	"strings"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
)

type JSON = map[string]interface{}

// AcceptanceCSV is the dataset Acceptance expects to be loaded, with a window
// of 2 initial rows growing by 2.
const AcceptanceCSV = `Make,Model,Year,fuelType1,city08,highway08,comb08,co2
Ford,Focus,2010,Regular Gasoline,24,33,28,317
Ford,Fiesta,2012,Regular Gasoline,29,39,33,269
Honda,Civic,2015,Regular Gasoline,30,39,33,
Honda,Accord,2014,Regular Gasoline,27,36,30,296
Tesla,Model 3,2020,Electricity,138,124,131,0
Tesla,Model 3,2020,Electricity,141,127,134,0
`

func Acceptance(a *biff.A, apiRequest func(method, path string) *apitest.Request) {

	a.Alternative("Find first window", func(a *biff.A) {
		resp := apiRequest("POST", "/vehicles:find").
			WithBodyJson(JSON{}).Do()
		Save(resp, "Find vehicles", `
			Returns the first window of vehicles together with the facet options.
			Send back the returned ´window´ to keep the position.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		body := resp.BodyJsonMap()
		biff.AssertEqualJson(body["total"], 6)
		biff.AssertEqualJson(body["visible"], 2)
		biff.AssertEqualJson(body["has_more"], true)
		biff.AssertEqualJson(body["rows"], []JSON{
			{"make": "Ford", "model": "Focus", "year": 2010, "fueltype1": "Regular Gasoline", "city08": 24, "highway08": 33, "comb08": 28, "co2": 317},
			{"make": "Ford", "model": "Fiesta", "year": 2012, "fueltype1": "Regular Gasoline", "city08": 29, "highway08": 39, "comb08": 33, "co2": 269},
		})
		biff.AssertEqualJson(body["options"], JSON{
			"makes":  []string{"Ford", "Honda", "Tesla"},
			"models": []string{"Accord", "Civic", "Fiesta", "Focus", "Model 3"},
			"years":  []string{"2010", "2012", "2014", "2015", "2020"},
			"fuels":  []string{"Electricity", "Regular Gasoline"},
		})
		biff.AssertEqualJson(body["unknown"], []string{})
		biff.AssertEqualJson(body["columns"], []string{"make", "model", "year", "fueltype1", "city08", "highway08", "comb08", "co2"})

		a.Alternative("Advance window", func(a *biff.A) {
			resp := apiRequest("POST", "/vehicles:find").
				WithBodyJson(JSON{
					"window":  body["window"],
					"advance": true,
				}).Do()
			Save(resp, "Find vehicles - advance window", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			next := resp.BodyJsonMap()
			biff.AssertEqualJson(next["visible"], 4)
			biff.AssertEqualJson(len(next["rows"].([]interface{})), 4)

			a.Alternative("Change facet resets window", func(a *biff.A) {
				resp := apiRequest("POST", "/vehicles:find").
					WithBodyJson(JSON{
						"make":   "Honda",
						"window": next["window"],
					}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				body := resp.BodyJsonMap()
				biff.AssertEqualJson(body["total"], 2)
				biff.AssertEqualJson(body["visible"], 2)
				biff.AssertEqualJson(body["has_more"], false)
				biff.AssertEqualJson(body["options"], JSON{
					"makes":  []string{"Ford", "Honda", "Tesla"},
					"models": []string{"Accord", "Civic"},
					"years":  []string{"2014", "2015"},
					"fuels":  []string{"Electricity", "Regular Gasoline"},
				})
			})

			a.Alternative("Advance past the end", func(a *biff.A) {
				window := next["window"]
				for i := 0; i < 3; i++ {
					resp := apiRequest("POST", "/vehicles:find").
						WithBodyJson(JSON{
							"window":  window,
							"advance": true,
						}).Do()
					window = resp.BodyJsonMap()["window"]
				}
				biff.AssertEqualJson(window.(map[string]interface{})["visible"], 6)
			})
		})
	})

	a.Alternative("Find with search", func(a *biff.A) {
		resp := apiRequest("POST", "/vehicles:find").
			WithBodyJson(JSON{
				"search": "  CIVIC ",
			}).Do()
		Save(resp, "Find vehicles - search", `
			Search is a case insensitive substring match over make, model and year.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		body := resp.BodyJsonMap()
		biff.AssertEqualJson(body["total"], 1)
		biff.AssertEqualJson(body["rows"].([]interface{})[0].(map[string]interface{})["model"], "Civic")
	})

	a.Alternative("Find with unknown facet", func(a *biff.A) {
		resp := apiRequest("POST", "/vehicles:find").
			WithBodyJson(JSON{
				"make": "Lada",
			}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		body := resp.BodyJsonMap()
		biff.AssertEqualJson(body["total"], 0)
		biff.AssertEqualJson(body["rows"], []JSON{})
		biff.AssertEqualJson(body["unknown"], []string{"make"})
	})

	a.Alternative("Find by fuel", func(a *biff.A) {
		resp := apiRequest("POST", "/vehicles:find").
			WithBodyJson(JSON{
				"fuel": "Electricity",
			}).Do()
		Save(resp, "Find vehicles - fuel", `
			The fuel list does not cascade: it always holds every fuel type.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		body := resp.BodyJsonMap()
		biff.AssertEqualJson(body["total"], 2)
		biff.AssertEqualJson(body["options"].(map[string]interface{})["fuels"], []string{"Electricity", "Regular Gasoline"})
		biff.AssertEqualJson(body["options"].(map[string]interface{})["makes"], []string{"Ford", "Honda", "Tesla"})
	})

	a.Alternative("Find with unknown fuel", func(a *biff.A) {
		resp := apiRequest("POST", "/vehicles:find").
			WithBodyJson(JSON{
				"fuel": "Diesel",
			}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		body := resp.BodyJsonMap()
		biff.AssertEqualJson(body["total"], 0)
		biff.AssertEqualJson(body["unknown"], []string{"fuel"})
	})

	a.Alternative("Find sorted", func(a *biff.A) {
		resp := apiRequest("POST", "/vehicles:find").
			WithBodyJson(JSON{
				"sort": JSON{"field": "co2", "direction": "desc"},
			}).Do()
		Save(resp, "Find vehicles - sorted", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		rows := resp.BodyJsonMap()["rows"].([]interface{})
		biff.AssertEqualJson(rows[0].(map[string]interface{})["model"], "Focus")
		biff.AssertEqualJson(rows[1].(map[string]interface{})["model"], "Accord")
	})

	a.Alternative("Find with where", func(a *biff.A) {
		resp := apiRequest("POST", "/vehicles:find").
			WithBodyJson(JSON{
				"where": JSON{"comb08": JSON{"$gt": 100}},
			}).Do()
		Save(resp, "Find vehicles - where", `
			´where´ accepts mongo like conditions over any column.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		biff.AssertEqualJson(resp.BodyJsonMap()["total"], 2)
	})

	a.Alternative("Find with bad sort", func(a *biff.A) {
		resp := apiRequest("POST", "/vehicles:find").
			WithBodyJson(JSON{
				"sort": JSON{"field": "horsepower"},
			}).Do()
		Save(resp, "Find vehicles - bad sort", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})

	a.Alternative("Export", func(a *biff.A) {
		resp := apiRequest("POST", "/vehicles:export").
			WithBodyJson(JSON{
				"make": "Ford",
			}).Do()
		Save(resp, "Export vehicles", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		biff.AssertTrue(strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
		biff.AssertEqual(resp.BodyString(), ""+
			"make,model,year,fueltype1,city08,highway08,comb08,co2\n"+
			"Ford,Focus,2010,Regular Gasoline,24,33,28,317\n"+
			"Ford,Fiesta,2012,Regular Gasoline,29,39,33,269\n")
	})

	a.Alternative("Get vehicle", func(a *biff.A) {
		resp := apiRequest("GET", "/vehicles/honda-civic-2015").Do()
		Save(resp, "Get vehicle", `
			Builds the page of a vehicle on first request and caches it.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		body := resp.BodyJsonMap()
		biff.AssertEqual(body["slug"], "honda-civic-2015")
		biff.AssertEqual(body["status"], "found")
		biff.AssertEqual(body["title"], "Honda Civic (2015) – MPG, CO₂ & Specs")
		biff.AssertEqual(body["url"], "https://mpg.example.com/cars/honda-civic-2015")
		biff.AssertEqual(body["json_ld"].(map[string]interface{})["@type"], "Product")
		cache := body["cache"].(map[string]interface{})
		biff.AssertEqual(cache["state"], "fresh")

		a.Alternative("Get vehicle again", func(a *biff.A) {
			resp := apiRequest("GET", "/vehicles/honda-civic-2015").Do()

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(resp.BodyJsonMap()["cache"].(map[string]interface{})["built_at"], cache["built_at"])
		})
	})

	a.Alternative("Get vehicle not found", func(a *biff.A) {
		resp := apiRequest("GET", "/vehicles/lada-niva-1977").Do()
		Save(resp, "Get vehicle - not found", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
	})

	a.Alternative("Get vehicle ambiguous", func(a *biff.A) {
		resp := apiRequest("GET", "/vehicles/tesla-model-3-2020").Do()
		Save(resp, "Get vehicle - ambiguous", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusConflict)
	})

	a.Alternative("Get dataset", func(a *biff.A) {
		resp := apiRequest("GET", "/dataset").Do()
		Save(resp, "Get dataset", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		body := resp.BodyJsonMap()
		biff.AssertEqualJson(body["total"], 6)
		biff.AssertEqualJson(body["fields"], []string{"make", "model", "year", "fueltype1", "city08", "highway08", "comb08", "co2"})
		biff.AssertEqualJson(body["problems"], []JSON{})
	})

	a.Alternative("Reload dataset", func(a *biff.A) {
		resp := apiRequest("POST", "/dataset:reload").
			WithHeader("Content-Type", "text/csv").
			WithBodyString("make,model,year\nFord,Focus,2010\nFord,Ka\nFord,Puma,2020\n").Do()
		Save(resp, "Reload dataset", `
			Replaces the whole dataset. Malformed rows are skipped and reported.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		body := resp.BodyJsonMap()
		biff.AssertEqualJson(body["total"], 2)
		biff.AssertEqualJson(body["problems"], []JSON{
			{"kind": "MalformedRow", "line": 3, "expected": 3, "actual": 2},
		})

		a.Alternative("Find after reload", func(a *biff.A) {
			resp := apiRequest("POST", "/vehicles:find").
				WithBodyJson(JSON{}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJsonMap()["options"].(map[string]interface{})["models"], []string{"Focus", "Puma"})
		})

		a.Alternative("Get vehicle after reload", func(a *biff.A) {
			resp := apiRequest("GET", "/vehicles/honda-civic-2015").Do()

			biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
		})
	})

	a.Alternative("Reload empty dataset", func(a *biff.A) {
		resp := apiRequest("POST", "/dataset:reload").
			WithBodyString("").Do()
		Save(resp, "Reload dataset - empty", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})

	a.Alternative("Sitemap", func(a *biff.A) {
		resp := apiRequest("GET", "/sitemap").Do()
		Save(resp, "Sitemap", `
			Vehicles with an ambiguous slug are left out.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		body := resp.BodyJsonMap()
		biff.AssertEqual(body["@type"], "ItemList")
		biff.AssertEqualJson(len(body["itemListElement"].([]interface{})), 4)
	})
}
