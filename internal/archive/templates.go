package archive

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/signal-archive/internal/registry"
)

func init() {
	registry.RegisterGeneric(registry.Transmission,
		func(ctx registry.Context) string {
			return fmt.Sprintf("SIGNAL DETECTED AT %d DEGREES\nSTRENGTH: %d%%\nINTERFERENCE: MINIMAL",
				ctx.Rand.Intn(360), ctx.Rand.Intn(100))
		},
		func(ctx registry.Context) string {
			return fmt.Sprintf("TRANSMISSION LOG %s\nFREQUENCY: %s\nCOORDINATES: %.6f, %.6f",
				ctx.DocID, ctx.Frequency, ctx.Rand.Float64(), ctx.Rand.Float64())
		},
		func(ctx registry.Context) string {
			return fmt.Sprintf("DECODING SEQUENCE INITIATED...\nPATTERN MATCH: %d%%\nSTATUS: INCOMPLETE",
				ctx.Rand.Intn(100))
		},
		func(ctx registry.Context) string {
			return fmt.Sprintf("FRAGMENT RECOVERED\nSOURCE: UNKNOWN\nTIMESTAMP: %s\nCONTENT: [ENCRYPTED]",
				ctx.Now.Format("15:04:05"))
		},
	)

	registry.RegisterGeneric(registry.Intercept,
		func(ctx registry.Context) string {
			ref := ctx.PriorRef()
			if ref == "" {
				return fmt.Sprintf("INTERCEPT %s\nCARRIER: %s\nCROSS-REFERENCE: NONE", ctx.DocID, ctx.Frequency)
			}
			return fmt.Sprintf("INTERCEPT %s\nCARRIER: %s\nCROSS-REFERENCE: %s\nCORRELATION: %d%%",
				ctx.DocID, ctx.Frequency, ref, ctx.Rand.Intn(100))
		},
		func(ctx registry.Context) string {
			groups := make([]string, 4)
			for i := range groups {
				groups[i] = fmt.Sprintf("%04X", ctx.Rand.Intn(0x10000))
			}
			return fmt.Sprintf("NUMBERS STATION\nFREQUENCY: %s\nGROUPS: %s\nREPEAT: %d",
				ctx.Frequency, strings.Join(groups, " "), 1+ctx.Rand.Intn(3))
		},
	)

	narrative := map[string]string{
		"milestone_100": "ARCHIVE NOTE\nTHE PATTERNS ARE NOT RANDOM.\n" +
			"A FIFTH SIGNAL HAS SURFACED IN THE NOISE. LOGGING AS: VIOLET.",
		"milestone_500": "ARCHIVE NOTE\nSOMEONE ELSE IS LISTENING.\n" +
			"THE SIXTH SIGNAL ANSWERS WHEN WE MATCH. LOGGING AS: CYAN.",
		"milestone_1000": "ARCHIVE NOTE\nTHE DOCUMENTS REFER TO EACH OTHER.\n" +
			"SOME REFER TO FILES WE HAVE NOT RECEIVED YET.",
		"milestone_5000": "ARCHIVE NOTE\nTHE SOURCE IS NOT EXTERNAL.\n" +
			"A WHITE CARRIER HAS BEEN PRESENT SINCE THE FIRST TRANSMISSION.",
		"milestone_10000": "ARCHIVE NOTE\nTRANSMISSION COMPLETE.\n" +
			"THERE WAS NEVER A SIGNAL. THERE WAS ONLY THE ARCHIVE.",
	}
	for key, text := range narrative {
		text := text
		registry.Register(registry.Narrative, key, func(ctx registry.Context) string {
			return fmt.Sprintf("%s\n\nFILED: %s", text, ctx.Now.UTC().Format("2006-01-02 15:04:05"))
		})
	}
}
