// file: internal/printsheet/render.go
// version: 1.0.0
// guid: 7c9e1a3b-5d6f-4a8c-9e0b-2d4f6a8c0e17

package printsheet

import (
	"html/template"
	"io"
	"strings"
	"time"
)

const notProvided = "Non renseigné"

type distributorView struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

type merchantView struct {
	Name    string
	Address string
	Boxes   string
}

type sheetView struct {
	PrintDate   string
	Distributor *distributorView
	Merchants   []merchantView
	Count       int
	TotalBoxes  int
}

var sheetTemplate = template.Must(template.New("sheet").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>Feuille de distribution</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #444; padding: 4px 8px; text-align: left; }
.check-box { width: 14px; height: 14px; border: 1px solid #000; }
@media print { .no-print { display: none; } }
</style>
</head>
<body>
<p id="current-date">Date d'impression: {{.PrintDate}}</p>
<div id="distributeur-info">
{{- with .Distributor}}
<p><strong>{{.Name}}</strong></p>
<p>{{.Address}}</p>
<p>Tél: {{.Phone}} | Email: {{.Email}}</p>
{{- else}}Aucun distributeur sélectionné{{end}}
</div>
<p id="commerces-summary">
{{- if .Merchants}}Nombre de commerces: {{.Count}} | Total des tirelires : {{.TotalBoxes}}{{else}}Aucun commerce assigné{{end -}}
</p>
<table id="commerces-table">
<thead><tr><th>Commerce</th><th>Adresse</th><th>Tirelires</th><th>Fait</th></tr></thead>
<tbody>
{{- range .Merchants}}
<tr class="commerce-row"><td>{{.Name}}</td><td>{{.Address}}</td><td>{{.Boxes}}</td><td><div class="check-box"></div></td></tr>
{{- end}}
</tbody>
</table>
<button class="no-print" onclick="window.print()">Imprimer</button>
</body>
</html>
`))

// joinWords joins the non-empty parts with a space.
func joinWords(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func address(street, number, postcode, locality string) string {
	line := joinWords(street, number)
	place := joinWords(postcode, locality)
	switch {
	case line == "":
		return place
	case place == "":
		return line
	}
	return line + ", " + place
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return notProvided
}

func newView(s Sheet, now time.Time) sheetView {
	v := sheetView{
		PrintDate:  PrintDate(now),
		Count:      len(s.Merchants),
		TotalBoxes: s.TotalBoxes(),
	}
	if d := s.Distributor; d != nil {
		v.Distributor = &distributorView{
			Name:    joinWords(d.Text("Forme_politesse"), d.Text("NOM"), d.Text("Prenom")),
			Address: address(d.Text("Rue"), d.Text("Numero"), d.Text("Code_Postal"), d.Text("Localite")),
			Phone:   firstOf(d.Text("Tel_fixe"), d.Text("Tel_portable")),
			Email:   firstOf(d.Text("Adresse_electronique")),
		}
	}
	for _, m := range s.Merchants {
		boxes := m.Text("Tirelires")
		if boxes == "" {
			boxes = "0"
		}
		v.Merchants = append(v.Merchants, merchantView{
			Name:    m.Text("NOM"),
			Address: address(m.Text("Rue"), m.Text("Numero"), m.Text("Code_Postal"), m.Text("Commune")),
			Boxes:   boxes,
		})
	}
	return v
}

// Render writes the sheet as a printable HTML page dated now.
func Render(w io.Writer, s Sheet, now time.Time) error {
	return sheetTemplate.Execute(w, newView(s, now))
}
