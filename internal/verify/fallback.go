package verify

import "github.com/rmontanez/chequeo/internal/model"

// The static safe default is a fixed exemplar of a well-known
// misinformation pattern. It is returned whenever the corpus is empty
// or any stage downstream of candidate search fails, so the verify
// surface never shows a blank error screen.
const (
	fallbackTitle       = "Las inyecciones de dióxido de cloro pueden eliminar el COVID-19"
	fallbackConfidence  = 99
	fallbackCorrectInfo = "No existe evidencia científica que respalde el uso de dióxido de cloro como tratamiento para COVID-19."
)

var fallbackTips = []string{
	"El dióxido de cloro puede causar irritación severa del sistema digestivo",
	"Puede provocar insuficiencia respiratoria",
	"Las autoridades sanitarias han advertido contra su uso",
}

// Advice attached to every successfully resolved response.
const foundCorrectInfo = "Consulta siempre a profesionales de la salud calificados para obtener información médica precisa."

var foundTips = []string{
	"Verifica la información con múltiples fuentes confiables",
	"Consulta a profesionales de la salud para consejos médicos",
	"Desconfía de remedios milagrosos o curas rápidas",
}

// StaticSafeDefault builds the fixed fallback body. A fresh value is
// returned each time so callers can never mutate shared state.
func StaticSafeDefault() *Response {
	return &Response{
		Found:                 false,
		ContentID:             0,
		Result:                model.VerdictFalse,
		Title:                 fallbackTitle,
		ConfidencePercent:     fallbackConfidence,
		Explanation:           explanationMisinformation,
		Sources:               []SourceRef{},
		Topic:                 nil,
		CorrectInformation:    fallbackCorrectInfo,
		AdditionalInformation: append([]string(nil), fallbackTips...),
	}
}
