package view

import (
	"bufio"
	"fmt"
	"html"
	"io"
)

// WriteSVG renders f as a standalone SVG document: hulls first, then links,
// nodes and labels, all under the viewport transform.
func WriteSVG(w io.Writer, f Frame) error {
	bw := bufio.NewWriter(w)
	vp := f.Viewport

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`+"\n",
		vp.Width, vp.Height, vp.Width, vp.Height)
	fmt.Fprintf(bw, `<g transform="%s">`+"\n", vp.Transform())

	bw.WriteString(`<g class="groups">` + "\n")
	for _, g := range f.Groups {
		fmt.Fprintf(bw, `<path class="hull" data-id="%s" d="%s"><title>%s</title></path>`+"\n",
			html.EscapeString(g.ID), g.Path, html.EscapeString(g.Name))
	}
	bw.WriteString("</g>\n")

	bw.WriteString(`<g class="links">` + "\n")
	for _, l := range f.Links {
		fmt.Fprintf(bw, `<line data-key="%s" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="%g"/>`+"\n",
			html.EscapeString(l.Key), l.X1, l.Y1, l.X2, l.Y2, l.Width)
	}
	bw.WriteString("</g>\n")

	bw.WriteString(`<g class="nodes">` + "\n")
	for _, n := range f.Nodes {
		class := n.Kind
		if n.Highlighted {
			class += " highlighted"
		}
		if n.Selected {
			class += " selected"
		}
		fmt.Fprintf(bw, `<circle class="%s" data-id="%s" cx="%.2f" cy="%.2f" r="%g"/>`+"\n",
			class, html.EscapeString(n.ID), n.X, n.Y, n.Radius)
		fmt.Fprintf(bw, `<text x="%.2f" y="%.2f" font-size="%g">%s</text>`+"\n",
			n.X+n.Radius+2, n.Y+f.TextSize/3, f.TextSize, html.EscapeString(n.Label))
	}
	bw.WriteString("</g>\n")

	bw.WriteString("</g>\n</svg>\n")
	return bw.Flush()
}
