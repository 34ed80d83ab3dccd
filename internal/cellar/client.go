// Package cellar queries the EU Publications Office SPARQL endpoint (CELLAR)
// for recent CJEU judgments and normalizes the result bindings.
package cellar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client posts SPARQL queries to the CELLAR endpoint.
type Client struct {
	endpoint string
	client   *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Binding is one SPARQL variable binding: {"value": "...", "type": "..."}.
type Binding struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// ResultSet is the application/sparql-results+json envelope.
type ResultSet struct {
	Results struct {
		Bindings []map[string]Binding `json:"bindings"`
	} `json:"results"`
}

// RecentJudgmentsQuery builds the SPARQL query for CJEU judgments (Court of
// Justice and General Court) decided within the last daysBack days.
func RecentJudgmentsQuery(daysBack, limit int) string {
	dateFilter := time.Now().UTC().AddDate(0, 0, -daysBack).Format("2006-01-02")

	return fmt.Sprintf(`
PREFIX cdm: <http://publications.europa.eu/ontology/cdm#>
PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>
PREFIX skos: <http://www.w3.org/2004/02/skos/core#>

SELECT DISTINCT
  ?work ?ecli ?date ?celex ?title ?courtLabel ?docTypeLabel ?subjectLabel
  ?procedureTypeLabel ?judgeRapporteur ?advocateGeneral ?formation ?origLanguage
WHERE {
  ?work cdm:case-law_ecli ?ecli ;
        cdm:work_date_document ?date .

  FILTER(STRSTARTS(?ecli, 'ECLI:EU:C:') || STRSTARTS(?ecli, 'ECLI:EU:T:'))
  FILTER(?date >= '%s'^^xsd:date)

  OPTIONAL { ?work cdm:resource_legal_id_celex ?celex . }

  OPTIONAL {
    ?work cdm:work_has_expression ?expr .
    ?expr cdm:expression_uses_language <http://publications.europa.eu/resource/authority/language/ENG> .
    ?expr cdm:expression_title ?title .
  }

  OPTIONAL {
    ?work cdm:case-law_delivered_by_court ?court .
    ?court skos:prefLabel ?courtLabel .
    FILTER(LANG(?courtLabel) = 'en')
  }

  OPTIONAL {
    ?work cdm:case-law_has_type_procedure_document_type ?docType .
    ?docType skos:prefLabel ?docTypeLabel .
    FILTER(LANG(?docTypeLabel) = 'en')
  }

  OPTIONAL {
    ?work cdm:case-law_is_about_concept_directory-code ?subject .
    ?subject skos:prefLabel ?subjectLabel .
    FILTER(LANG(?subjectLabel) = 'en')
  }

  OPTIONAL {
    ?work cdm:case-law_has_type_procedure_concept_type_procedure ?procedureType .
    ?procedureType skos:prefLabel ?procedureTypeLabel .
    FILTER(LANG(?procedureTypeLabel) = 'en')
  }

  OPTIONAL {
    ?work cdm:case-law_delivered_by_judge ?jrx .
    ?jrx cdm:agent_name ?judgeRapporteur .
  }

  OPTIONAL {
    ?work cdm:case-law_delivered_by_advocate-general ?agx .
    ?agx cdm:agent_name ?advocateGeneral .
  }

  OPTIONAL {
    ?work cdm:case-law_delivered_by_court-formation ?cfx .
    ?cfx cdm:agent_name ?formation .
  }

  OPTIONAL {
    ?work cdm:resource_legal_uses_originally_language ?origLang .
    ?origLang skos:prefLabel ?origLanguage .
    FILTER(LANG(?origLanguage) = 'en')
  }
}
ORDER BY DESC(?date)
LIMIT %d`, dateFilter, limit)
}

// Query posts a SPARQL query and decodes the JSON result set.
func (c *Client) Query(ctx context.Context, query string) (*ResultSet, error) {
	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/sparql-results+json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("cellar: sparql query failed (%d): %s", resp.StatusCode, body)
	}

	var rs ResultSet
	if err := json.NewDecoder(resp.Body).Decode(&rs); err != nil {
		return nil, fmt.Errorf("cellar: decode result set: %w", err)
	}
	return &rs, nil
}
