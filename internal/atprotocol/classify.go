package atprotocol

import "strings"

// MaxLineLength caps a classified line's length, matching the firmware's
// fixed 200-byte message buffer.
const MaxLineLength = 200

// prefixKinds is the closed vocabulary of recognised "+XXX" response
// prefixes, checked in the order the firmware checks them.
var prefixKinds = []struct {
	prefix string
	kind   ResponseKind
}{
	{"+CPSI", KindCPSI},
	{"+CREG", KindCREG},
	{"+CPMS", KindCPMS},
	{"+CSQ", KindCSQ},
	{"+CMGD", KindCMGD},
	{"+CMGS", KindCMGS},
	{"+CMTI", KindCMTI},
	{"+CMGR", KindCMGR},
	{"+CLCC", KindCLCC},
}

// Classified is the result of classifying one raw modem line: its kind
// and the line with CR/LF stripped and length-capped.
type Classified struct {
	Kind ResponseKind
	Line string
}

// Classify maps a raw modem line (with CR/LF already removed by the
// caller) to its ResponseKind, following the literal-prefix vocabulary
// in spec.md §4.2. Awaiting state for KindCMGR governs whether a
// free-form line is treated as an SMS body payload or simply ignored;
// awaitingCMGR must reflect the dialogue state at the moment the line
// arrives.
func Classify(line string, awaitingCMGR bool) Classified {
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength]
	}

	switch {
	case line == "OK":
		return Classified{Kind: KindOK, Line: line}
	case line == "ERROR":
		return Classified{Kind: KindError, Line: line}
	case line == ">", line == "":
		return Classified{Kind: KindIgnored, Line: line}
	}

	for _, pk := range prefixKinds {
		if strings.HasPrefix(line, pk.prefix) {
			return Classified{Kind: pk.kind, Line: line}
		}
	}

	if strings.HasPrefix(line, "+") {
		return Classified{Kind: KindUnknownPlus, Line: line}
	}

	if awaitingCMGR {
		return Classified{Kind: KindPayload, Line: line}
	}
	return Classified{Kind: KindIgnored, Line: line}
}
