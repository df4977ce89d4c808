// Package web serves a training monitor with live loss stats over a
// websocket and SVG charts of the loss history.
package web

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goji/httpauth"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/saahiluppal/generative-networks/gan"
	"github.com/saahiluppal/generative-networks/stats"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const maxRows = 25

// Monitor records per epoch training stats and serves them over HTTP. It
// implements the gan.Tester interface and delegates to the base tester.
type Monitor struct {
	sync.Mutex
	base     gan.Tester
	imageDir string
	history  []gan.Stats
	genEMA   float64
	discEMA  float64
	elapsed  stats.Average
	conn     *websocket.Conn
}

// NewMonitor wraps the base tester with stats recording for the web UI.
func NewMonitor(imageDir string, base gan.Tester) *Monitor {
	return &Monitor{base: base, imageDir: imageDir}
}

// Test records the epoch stats, pushes them to any connected websocket
// client and then delegates to the base tester.
func (m *Monitor) Test(g *gan.GAN, s gan.Stats) bool {
	m.Lock()
	m.history = append(m.history, s)
	if s.GenValid {
		m.genEMA = stats.EMA(m.genEMA).Add(s.GenLoss, 10)
	}
	m.discEMA = stats.EMA(m.discEMA).Add(s.DiscLoss, 10)
	m.elapsed.Add(s.Elapsed.Seconds())
	if m.conn != nil {
		if err := m.conn.WriteJSON(s); err != nil {
			m.conn.Close()
			m.conn = nil
		}
	}
	m.Unlock()
	return m.base.Test(g, s)
}

// ListenAndServe starts the monitor on addr. If auth is set as "user:pass"
// the routes are wrapped with basic authentication.
func (m *Monitor) ListenAndServe(addr, auth string) error {
	r := mux.NewRouter()
	r.HandleFunc("/", m.index)
	r.HandleFunc("/plot/loss.svg", m.lossPlot)
	r.HandleFunc("/ws", m.websock)
	r.PathPrefix("/images/").Handler(
		http.StripPrefix("/images/", http.FileServer(http.Dir(m.imageDir))))
	var handler http.Handler = r
	if auth != "" {
		user, pass, ok := strings.Cut(auth, ":")
		if !ok {
			return fmt.Errorf("web: auth must be in user:pass format")
		}
		handler = httpauth.SimpleBasicAuth(user, pass)(r)
	}
	fmt.Println("monitor listening on", addr)
	return http.ListenAndServe(addr, handler)
}

func (m *Monitor) websock(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logError(w, err)
		return
	}
	m.Lock()
	if m.conn != nil {
		m.conn.Close()
	}
	m.conn = conn
	m.Unlock()
}

type indexData struct {
	Epoch   int
	GenEMA  string
	DiscEMA string
	Elapsed string
	Rows    []gan.Stats
	Sample  string
}

func (m *Monitor) index(w http.ResponseWriter, r *http.Request) {
	m.Lock()
	d := indexData{
		GenEMA:  fmt.Sprintf("%.4f", m.genEMA),
		DiscEMA: fmt.Sprintf("%.4f", m.discEMA),
		Elapsed: m.elapsed.String() + "s",
		Sample:  m.latestSample(),
	}
	if n := len(m.history); n > 0 {
		d.Epoch = m.history[n-1].Epoch
		first := n - maxRows
		if first < 0 {
			first = 0
		}
		for i := n - 1; i >= first; i-- {
			d.Rows = append(d.Rows, m.history[i])
		}
	}
	m.Unlock()
	if err := indexTmpl.Execute(w, d); err != nil {
		logError(w, err)
	}
}

// latestSample returns the name of the newest exported sample grid, if any.
func (m *Monitor) latestSample() string {
	entries, err := os.ReadDir(m.imageDir)
	if err != nil {
		return ""
	}
	best := -1
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".png") {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSuffix(name, ".png")); err == nil && n > best {
			best = n
		}
	}
	if best < 0 {
		return ""
	}
	return fmt.Sprintf("%d.png", best)
}

func logError(w http.ResponseWriter, err error) {
	log.Println("ERROR:", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func fmtDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"duration": fmtDuration,
}).Parse(`<!DOCTYPE html>
<html>
<head><title>training monitor</title>
<style>
body { font-family: sans-serif; background: #111; color: #ddd; }
table { border-collapse: collapse; }
td, th { padding: 2px 12px; text-align: right; }
img { image-rendering: pixelated; }
</style>
</head>
<body>
<h2>epoch <span id="epoch">{{.Epoch}}</span></h2>
<p>smoothed g loss {{.GenEMA}} &nbsp; smoothed d loss {{.DiscEMA}} &nbsp; epoch time {{.Elapsed}}</p>
{{if .Sample}}<p><img src="/images/{{.Sample}}" width="460" alt="samples"></p>{{end}}
<p><img src="/plot/loss.svg" alt="loss history"></p>
<table id="stats">
<tr><th>epoch</th><th>g loss</th><th>d loss</th><th>time</th></tr>
{{range .Rows}}<tr><td>{{.Epoch}}</td><td>{{if .GenValid}}{{printf "%.4f" .GenLoss}}{{else}}-{{end}}</td><td>{{printf "%.4f" .DiscLoss}}</td><td>{{duration .Elapsed}}</td></tr>
{{end}}
</table>
<script>
var ws = new WebSocket("ws://" + location.host + "/ws");
ws.onmessage = function(ev) {
	var s = JSON.parse(ev.data);
	document.getElementById("epoch").textContent = s.Epoch;
};
</script>
</body>
</html>
`))
