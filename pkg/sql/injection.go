package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on user input.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Input       string // The value that was checked
}

// CheckQuestionForInjection uses libinjection to detect SQL injection
// patterns in a natural-language question before it is embedded into the
// generation prompt. A question carrying an injection fingerprint is almost
// certainly an attempt to steer the generator into emitting an unintended
// statement, so the pipeline rejects it up front.
//
// Returns nil if no injection is detected.
func CheckQuestionForInjection(question string) *InjectionCheckResult {
	isSQLi, fingerprint := libinjection.IsSQLi(question)
	if isSQLi {
		return &InjectionCheckResult{
			IsSQLi:      true,
			Fingerprint: string(fingerprint),
			Input:       question,
		}
	}

	return nil
}
