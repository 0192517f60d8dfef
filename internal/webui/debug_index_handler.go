package webui

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/davecgh/go-spew/spew"

	"aonbas.x341.dev/internal/logging"
)

var debugTemplate = template.Must(template.New("debug_index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<pre>{{.Pre}}</pre>
</body>
</html>
`))

type debugData struct {
	Title string
	Pre   string
}

var dumper = spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := debugTemplate.Execute(w, debugData{
		Title: title,
		Pre:   dumper.Sdump(data),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type cacheStats struct {
	Entries     int
	Capacity    int
	CachedFeeds int
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dataType := r.URL.Query().Get("dataType")
	network := r.URL.Query().Get("network")
	if network == "" {
		network = "TRAMBAIX"
	}

	var (
		data  interface{}
		title string
		err   error
	)

	switch dataType {
	case "cache":
		data = cacheStats{
			Entries:     webUI.Cache.Len(),
			Capacity:    webUI.Config.CacheCapacity,
			CachedFeeds: webUI.Feeds.Len(),
		}
		title = "Caches"
	case "stops":
		data, err = webUI.Tram.FetchAllStops(ctx)
		title = "Tram - Stops"
	case "codes":
		data, err = webUI.Tram.ListGtfsCodes(ctx)
		title = "Tram - GTFS Codes"
	case "lines":
		data, err = webUI.decodedLines(ctx)
		title = "Tram - Lines"
	case "missing":
		data, err = webUI.Tram.FindMissingStaticStops(ctx, network)
		title = "Tram - Stops Missing From " + network
	case "realtime":
		data, err = webUI.Tram.GetMergedFeed(ctx, network)
		title = "GTFS Realtime - " + network
	default:
		data = map[string]string{
			"error": "Please use one of the following: cache, stops, codes, lines, missing, realtime.",
		}
		title = "Debug"
	}

	if err != nil {
		logging.LogError(logging.FromContext(ctx), "debug page failed", err)
		data = map[string]string{"error": err.Error()}
	}
	writeDebugData(w, title, data)
}

func (webUI *WebUI) decodedLines(ctx context.Context) (interface{}, error) {
	raw, err := webUI.Tram.GetLines(ctx)
	if err != nil {
		return nil, err
	}
	var lines interface{}
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}
