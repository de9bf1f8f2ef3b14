// Package enrich tags articles with the healthcare companies and products
// they mention, using a curated vocabulary plus name-shape patterns.
package enrich

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

var knownCompanies = []string{
	// Big Pharma
	"Pfizer", "Johnson & Johnson", "J&J", "Merck", "AbbVie", "Novartis",
	"Roche", "Bristol-Myers Squibb", "BMS", "Eli Lilly", "Lilly", "AstraZeneca",
	"Sanofi", "GlaxoSmithKline", "GSK", "Gilead", "Amgen", "Regeneron",
	"Moderna", "BioNTech", "Vertex", "Biogen", "Takeda", "Bayer",
	"Boehringer Ingelheim", "Novo Nordisk", "Teva", "Allergan", "Celgene",

	// Medical devices
	"Medtronic", "Abbott", "Abbott Laboratories", "Boston Scientific",
	"Stryker", "Becton Dickinson", "BD", "Edwards Lifesciences",
	"Intuitive Surgical", "Zimmer Biomet", "Smith & Nephew",
	"Baxter", "Dexcom", "ResMed", "Hologic", "Align Technology",
	"DePuy Synthes", "Philips", "Siemens Healthineers", "GE Healthcare",
	"Medela", "Terumo", "Olympus", "Cardinal Health", "McKesson",

	// Surgical robotics
	"Intuitive", "da Vinci", "Mako", "ROSA", "Mazor", "Verb Surgical",
	"CMR Surgical", "Versius", "Hugo", "Senhance", "TransEnterix",
	"Auris Health", "Vicarious Surgical", "Asensus Surgical",

	// Diagnostics and labs
	"Quest Diagnostics", "LabCorp", "Labcorp", "Exact Sciences",
	"Illumina", "Thermo Fisher", "Roche Diagnostics", "Bio-Rad",
	"Qiagen", "Cepheid", "Beckman Coulter", "Sysmex",

	// Digital health
	"Epic", "Cerner", "Oracle Health", "Athenahealth", "Teladoc",
	"Livongo", "Omada Health", "Noom", "Fitbit", "Apple Health",
	"Google Health", "Amazon Health", "CVS Health", "Walgreens",
	"UnitedHealth", "Anthem", "Cigna", "Humana", "Aetna",

	// Diabetes technology
	"Insulet", "Tandem Diabetes", "Tandem", "Omnipod",
	"Abbott FreeStyle", "Medtronic Diabetes", "Beta Bionics",

	// Neuromodulation
	"Nevro", "Axonics", "Boston Scientific Neuromodulation",
	"Abbott Neuromodulation", "Medtronic Neuromodulation",

	// Orthopedics
	"Zimmer", "Biomet", "DePuy", "Synthes", "Stryker Orthopaedics",
	"Smith+Nephew", "Arthrex", "NuVasive", "Globus Medical",
	"Orthofix", "Wright Medical", "Exactech",

	// Cardiovascular
	"Edwards", "Medtronic Cardiac", "Abbott Vascular", "Boston Scientific Cardiac",
	"Biotronik", "LivaNova", "AtriCure", "Spectranetics",

	// Health systems
	"HCA Healthcare", "CommonSpirit", "Ascension", "Trinity Health",
	"Providence", "Tenet Healthcare", "Community Health Systems",
	"Universal Health Services", "Mayo Clinic", "Cleveland Clinic",
	"Johns Hopkins", "Mass General", "Kaiser Permanente",
}

var knownProducts = []string{
	// Surgical robots
	"da Vinci", "da Vinci Xi", "da Vinci SP", "da Vinci 5",
	"Mako", "Mako SmartRobotics", "ROSA", "ROSA Knee", "ROSA Hip",
	"Hugo RAS", "Versius", "Ion", "Monarch",

	// Diabetes devices
	"FreeStyle Libre", "Libre 2", "Libre 3", "Dexcom G6", "Dexcom G7",
	"Dexcom Stelo", "Omnipod 5", "t:slim X2", "MiniMed 780G",
	"Control-IQ", "Loop", "iLet Bionic Pancreas",

	// Cardiac devices
	"TAVR", "MitraClip", "Watchman", "SAPIEN", "Evolut",
	"HeartMate", "CardioMEMS", "Impella", "ECMO",

	// Neuromodulation
	"HFX", "Intellis", "Proclaim", "Spectra", "Precision",
	"Senza", "Omnia", "WaveWriter",

	// Orthopedic implants
	"ATTUNE", "JOURNEY", "LEGION", "Triathlon", "Persona",
	"Sigma", "Genesis II", "Oxford", "MAKO TKA",

	// Cancer drugs
	"Keytruda", "Opdivo", "Tecentriq", "Imfinzi", "Yervoy",
	"Ibrance", "Tagrisso", "Lynparza", "Darzalex", "Revlimid",

	// Other major drugs
	"Humira", "Eliquis", "Ozempic", "Wegovy", "Mounjaro",
	"Trulicity", "Jardiance", "Entresto", "Xarelto", "Eylea",
	"Dupixent", "Stelara", "Skyrizi", "Rinvoq", "Tremfya",
}

// Capitalized words that pattern rules keep matching but never name an
// entity, plus short vocabulary terms that collide with ordinary words.
var falsePositives = map[string]struct{}{
	"The": {}, "A": {}, "An": {}, "In": {}, "On": {}, "For": {}, "And": {},
	"Or": {}, "But": {}, "With": {}, "New": {}, "Study": {}, "Research": {},
	"Trial": {}, "Results": {}, "Data": {}, "Health": {}, "Medical": {},
	"Clinical": {}, "Patient": {}, "Patients": {}, "Treatment": {},
	"FDA": {}, "WHO": {}, "CDC": {}, "NIH": {},
	"Ion": {}, "ion": {}, "Loop": {}, "loop": {}, "ROSA": {}, "Hugo": {},
	"Mako": {}, "Epic": {},
}

var drugSuffixes = []string{
	"mab", "nib", "lib", "tinib", "zumab", "ximab", "tide", "glutide",
	"parib", "ciclib", "vir", "navir", "previr", "buvir", "statin",
	"pril", "sartan", "olol",
}

var (
	fdaApprovalRe  = regexp.MustCompile(`FDA\s+(?:approved?|cleared?|authorized?)\s+([A-Z][a-zA-Z0-9\s\-]+?)(?:\s+for|\s+to|\s+as|,|\.)`)
	acquisitionRe  = regexp.MustCompile(`([A-Z][a-zA-Z\s&]+?)\s+(?:acquires?|acquired|to acquire|bought|purchases?|partners? with)`)
	drugSuffixRes  = compileDrugPatterns()
	companyMatchRe = compileVocabulary(knownCompanies)
	productMatchRe = compileVocabulary(knownProducts)
)

type vocabPattern struct {
	name string
	re   *regexp.Regexp
}

// compileVocabulary builds a word-boundary matcher per term. Terms of three
// characters or fewer match too many things and are skipped.
func compileVocabulary(terms []string) []vocabPattern {
	patterns := make([]vocabPattern, 0, len(terms))
	for _, term := range terms {
		if len(term) <= 3 {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		patterns = append(patterns, vocabPattern{name: term, re: re})
	}
	return patterns
}

func compileDrugPatterns() []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(drugSuffixes))
	for _, suffix := range drugSuffixes {
		res = append(res, regexp.MustCompile(`(?i)\b([A-Za-z][a-z]+`+suffix+`)\b`))
	}
	return res
}

// ExtractEntities finds company and product mentions in free text. Both
// result slices are sorted and deduplicated; empty input yields empty
// slices, never nil.
func ExtractEntities(text string) (companies, products []string) {
	companySet := make(map[string]struct{})
	productSet := make(map[string]struct{})

	if text != "" {
		matchVocabulary(text, companyMatchRe, companySet)
		for _, m := range acquisitionRe.FindAllStringSubmatch(text, -1) {
			if clean := strings.TrimSpace(m[1]); len(clean) > 2 && len(clean) < 40 {
				companySet[clean] = struct{}{}
			}
		}

		matchVocabulary(text, productMatchRe, productSet)
		for _, re := range drugSuffixRes {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				productSet[titleCase(m[1])] = struct{}{}
			}
		}
		for _, m := range fdaApprovalRe.FindAllStringSubmatch(text, -1) {
			if clean := strings.TrimSpace(m[1]); len(clean) > 2 && len(clean) < 50 {
				productSet[clean] = struct{}{}
			}
		}
	}

	return collect(companySet), collect(productSet)
}

func matchVocabulary(text string, patterns []vocabPattern, into map[string]struct{}) {
	for _, p := range patterns {
		if m := p.re.FindString(text); m != "" {
			into[m] = struct{}{}
		}
	}
}

// titleCase normalizes drug-name casing so "KEYTRUDA" and "keytruda"
// collapse to one entry.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func collect(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		if _, fp := falsePositives[name]; fp || len(name) <= 1 {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Article fills in the Companies and Products fields from the article's
// title and summary.
func Article(a *types.Article) {
	a.Companies, a.Products = ExtractEntities(a.Title + " " + a.Summary)
}

// Articles enriches a slice in place.
func Articles(articles []types.Article) {
	for i := range articles {
		Article(&articles[i])
	}
}
