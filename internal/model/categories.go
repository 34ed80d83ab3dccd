package model

// Taxonomy is the fixed set of legal categories. It is seeded into the
// legal_categories table by the migrate command and reused verbatim when
// building classification prompts, so the stored taxonomy and the labels the
// classifier may return can never drift apart.
var Taxonomy = []LegalCategory{
	{Name: "AI, Platforms and Data Protection Law", Slug: "ai-platforms-data-protection"},
	{Name: "Administrative Law", Slug: "administrative"},
	{Name: "Banking & Finance Law", Slug: "banking-finance"},
	{Name: "Capital Markets / Securities Law", Slug: "capital-markets-securities"},
	{Name: "Competition / Antitrust Law", Slug: "competition-antitrust"},
	{Name: "Construction & Real Estate Law", Slug: "construction-real-estate"},
	{Name: "Consumer Protection Law", Slug: "consumer-protection"},
	{Name: "Corporate / Company Law", Slug: "corporate-company"},
	{Name: "Criminal Law", Slug: "criminal"},
	{Name: "Employment & Labour Law", Slug: "employment-labour"},
	{Name: "Energy Law", Slug: "energy"},
	{Name: "Environmental Law", Slug: "environmental"},
	{Name: "Family Law", Slug: "family"},
	{Name: "Life Sciences Law", Slug: "life-sciences"},
	{Name: "Immigration Law", Slug: "immigration"},
	{Name: "Infrastructure & Public Procurement Law", Slug: "infrastructure-procurement"},
	{Name: "Media & Telecommunications Law", Slug: "media-telecom"},
	{Name: "Insolvency & Restructuring Law", Slug: "insolvency-restructuring"},
	{Name: "Insurance Law", Slug: "insurance"},
	{Name: "Intellectual Property (Patents, Trademarks, Copyright)", Slug: "intellectual-property"},
	{Name: "International Law, Trade & Customs Law", Slug: "international-trade-customs"},
	{Name: "Litigation & Dispute Resolution", Slug: "litigation-dispute-resolution"},
	{Name: "Mergers & Acquisitions (M&A)", Slug: "mergers-acquisitions"},
	{Name: "Private Equity & Venture Capital", Slug: "private-equity-vc"},
	{Name: "Constitutional Law", Slug: "constitutional"},
	{Name: "Sports & Entertainment Law", Slug: "sports-entertainment"},
	{Name: "Tax Law", Slug: "tax"},
	{Name: "Transport & Logistics Law", Slug: "transport-logistics"},
}

// CategoryNames returns the taxonomy names in declaration order.
func CategoryNames() []string {
	names := make([]string, 0, len(Taxonomy))
	for _, c := range Taxonomy {
		names = append(names, c.Name)
	}
	return names
}
