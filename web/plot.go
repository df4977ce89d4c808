package web

import (
	"log"
	"net/http"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/saahiluppal/generative-networks/gan"
)

// Handler for the loss history chart.
func (m *Monitor) lossPlot(w http.ResponseWriter, r *http.Request) {
	m.Lock()
	history := append([]gan.Stats{}, m.history...)
	m.Unlock()

	plt := newPlot()
	dline := newLinePlot(history, func(s gan.Stats) (float64, bool) { return s.DiscLoss, true }, 1)
	plt.Add(dline)
	plt.Legend.Add("discriminator loss ", dline)
	gline := newLinePlot(history, func(s gan.Stats) (float64, bool) { return s.GenLoss, s.GenValid }, 2)
	plt.Add(gline)
	plt.Legend.Add("generator loss ", gline)

	w.Header().Set("Content-Type", "image/svg+xml")
	writePlot(w, plt, 8, 5)
}

func newPlot() *plot.Plot {
	p, err := plot.New()
	if err != nil {
		log.Fatal("Plot error: ", err)
	}
	fontSmall := newFont(10)
	fontMedium := newFont(12)
	p.X.Padding, p.Y.Padding = 0, 0
	p.X.Label.Text = "epoch"
	p.X.Tick.Label.Font = fontSmall
	p.Y.Tick.Label.Font = fontSmall
	p.Legend.Top = true
	p.Legend.Font = fontMedium
	p.Add(plotter.NewGrid())
	return p
}

func writePlot(w http.ResponseWriter, p *plot.Plot, width, height int) {
	writer, err := p.WriterTo(vg.Inch*vg.Length(width), vg.Inch*vg.Length(height), "svg")
	if err != nil {
		logError(w, err)
		return
	}
	if _, err = writer.WriteTo(w); err != nil {
		log.Println("ERROR: writing plot:", err)
	}
}

func newFont(size vg.Length) vg.Font {
	font, err := vg.MakeFont("Helvetica", size)
	if err != nil {
		log.Fatal("Plot: failed loading font ", err)
	}
	return font
}

func newLinePlot(history []gan.Stats, value func(gan.Stats) (float64, bool), ix int) *plotter.Line {
	var pts plotter.XYs
	for _, s := range history {
		if v, ok := value(s); ok {
			pts = append(pts, plotter.XY{X: float64(s.Epoch), Y: v})
		}
	}
	l, _ := plotter.NewLine(pts)
	l.Width = 2
	l.Color = plotutil.Color(ix)
	return l
}
