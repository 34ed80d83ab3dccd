package cellar

import "strings"

// Judgment is a normalized, per-ECLI merged view of the SPARQL bindings.
type Judgment struct {
	ECLI            string
	CELEX           string
	Title           string
	Date            string
	Court           string
	DocumentType    string
	SubjectMatter   string
	ProcedureType   string
	JudgeRapporteur string
	AdvocateGeneral string
	Formation       string
	CaseLanguage    string
	CellarURI       string
}

// ParsedECLI is the court/year/sequence triple inside an ECLI.
type ParsedECLI struct {
	Court    string
	Year     string
	Sequence string
}

// ParseECLI splits an identifier of the form ECLI:EU:C:2026:123 into its
// parts, mapping court code C to "Court of Justice" and T to "General Court";
// any other code passes through verbatim. Identifiers with fewer than five
// colon-delimited segments yield the zero value.
func ParseECLI(ecli string) ParsedECLI {
	parts := strings.Split(ecli, ":")
	if len(parts) < 5 {
		return ParsedECLI{}
	}

	court := parts[2]
	switch court {
	case "C":
		court = "Court of Justice"
	case "T":
		court = "General Court"
	}
	return ParsedECLI{Court: court, Year: parts[3], Sequence: parts[4]}
}

// Normalize converts one SPARQL binding row into a Judgment. The court label
// falls back to the court parsed out of the ECLI when CELLAR returned none.
func Normalize(row map[string]Binding) Judgment {
	ecli := row["ecli"].Value
	court := row["courtLabel"].Value
	if court == "" {
		court = ParseECLI(ecli).Court
	}

	return Judgment{
		ECLI:            ecli,
		CELEX:           row["celex"].Value,
		Title:           row["title"].Value,
		Date:            row["date"].Value,
		Court:           court,
		DocumentType:    row["docTypeLabel"].Value,
		SubjectMatter:   row["subjectLabel"].Value,
		ProcedureType:   row["procedureTypeLabel"].Value,
		JudgeRapporteur: row["judgeRapporteur"].Value,
		AdvocateGeneral: row["advocateGeneral"].Value,
		Formation:       row["formation"].Value,
		CaseLanguage:    row["origLanguage"].Value,
		CellarURI:       row["work"].Value,
	}
}

// Deduplicate merges binding rows that share an ECLI. CELLAR returns one row
// per subject-matter concept, so subjects are concatenated semicolon-separated
// without duplicates; every other field keeps its first-seen value. Rows
// without an ECLI are dropped. Output preserves first-seen order.
func Deduplicate(rows []map[string]Binding) []Judgment {
	byECLI := make(map[string]int)
	out := make([]Judgment, 0, len(rows))

	for _, row := range rows {
		j := Normalize(row)
		if j.ECLI == "" {
			continue
		}

		idx, seen := byECLI[j.ECLI]
		if !seen {
			byECLI[j.ECLI] = len(out)
			out = append(out, j)
			continue
		}

		existing := &out[idx]
		if j.SubjectMatter != "" && !containsSubject(existing.SubjectMatter, j.SubjectMatter) {
			if existing.SubjectMatter == "" {
				existing.SubjectMatter = j.SubjectMatter
			} else {
				existing.SubjectMatter += "; " + j.SubjectMatter
			}
		}
	}
	return out
}

func containsSubject(joined, subject string) bool {
	return strings.Contains(joined, subject)
}
