package clindoc

// LengthHint labels the expected verbosity of a generated summary. It is
// rendered into the document header so the model can calibrate its output.
type LengthHint string

const (
	LengthShort   LengthHint = "short"
	LengthMedium  LengthHint = "medium"
	LengthLong    LengthHint = "long"
	LengthUnknown LengthHint = "unknown"
)

// ClassifyChars maps a character count of the source narrative to a hint.
// Used on the live request path where only the raw note text is available.
func ClassifyChars(n int) LengthHint {
	switch {
	case n < 0:
		return LengthUnknown
	case n < 1200:
		return LengthShort
	case n < 2100:
		return LengthMedium
	default:
		return LengthLong
	}
}

// ClassifyWords maps a word count of the reference summary to a hint. Used
// by the dataset builder where the ground-truth summary is known.
func ClassifyWords(n int) LengthHint {
	switch {
	case n < 0:
		return LengthUnknown
	case n < 400:
		return LengthShort
	case n < 700:
		return LengthMedium
	default:
		return LengthLong
	}
}
