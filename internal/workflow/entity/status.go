package entity

// Projektstatus — persisted as a bare integer, so every lookup must tolerate
// values outside the known range.
const (
	StatusErfassung           = 1
	StatusPruefungVertrieb    = 2
	StatusPruefungSupplyChain = 3
	StatusPruefungPlanung     = 4
	StatusGenehmigt           = 5
	StatusAbgelehnt           = 6
	StatusAbgeschlossen       = 7
)

// StatusInfo describes how a status is presented and whether a project in
// this status may be archived.
type StatusInfo struct {
	Label      string `json:"label"`
	ColorClass string `json:"color_class"`
	Archivable bool   `json:"archivable"`
}

var statusRegistry = map[int]StatusInfo{
	StatusErfassung:           {Label: "Erfassung", ColorClass: "bg-gray-500"},
	StatusPruefungVertrieb:    {Label: "Prüfung Vertrieb", ColorClass: "bg-yellow-500"},
	StatusPruefungSupplyChain: {Label: "Prüfung Supply Chain", ColorClass: "bg-blue-500"},
	StatusPruefungPlanung:     {Label: "Prüfung Planung", ColorClass: "bg-purple-500"},
	StatusGenehmigt:           {Label: "Genehmigt", ColorClass: "bg-green-600", Archivable: true},
	StatusAbgelehnt:           {Label: "Abgelehnt", ColorClass: "bg-red-600", Archivable: true},
	StatusAbgeschlossen:       {Label: "Abgeschlossen", ColorClass: "bg-slate-500", Archivable: true},
}

// unknownStatus is the defensive default for integers outside the registry.
var unknownStatus = StatusInfo{Label: "Unbekannt", ColorClass: "bg-gray-400"}

// StatusOf resolves a persisted status integer. Unknown values resolve to the
// safe default instead of failing.
func StatusOf(status int) StatusInfo {
	if info, ok := statusRegistry[status]; ok {
		return info
	}
	return unknownStatus
}

// StatusLabel returns the human label for a status value.
func StatusLabel(status int) string {
	return StatusOf(status).Label
}

// StatusColor returns the display color class for a status value.
func StatusColor(status int) string {
	return StatusOf(status).ColorClass
}

// StatusArchivable reports whether a project in this status may be archived.
func StatusArchivable(status int) bool {
	return StatusOf(status).Archivable
}
