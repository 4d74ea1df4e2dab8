package heuristic

// Keyword tables are bilingual (French/English); matching folds case and
// accents, so entries are listed unaccented.

var sectionHeaderWords = []string{
	"experience", "experiences", "parcours", "emploi", "career",
	"competence", "competences", "skills", "expertise",
	"logiciel", "logiciels", "software", "outils", "tools",
	"langue", "langues", "languages",
	"formation", "formations", "education", "diplome", "diplomes", "etudes",
	"profil", "profile", "resume", "summary", "a propos", "about",
	"certification", "certifications",
	"interet", "interets", "hobbies", "loisirs",
	"mission", "missions", "responsabilites", "responsibilities",
	"avantages", "benefits",
	"contact", "coordonnees",
	"mission", "missions", "responsibilities", "responsabilites",
	"avantages", "benefits", "requirements", "qualifications",
}

var experienceSectionWords = []string{
	"experience", "experiences", "parcours", "emploi", "career",
}

var skillsSectionWords = []string{
	"competence", "competences", "skills", "expertise",
}

var softwareSectionWords = []string{
	"logiciel", "logiciels", "software", "outils", "tools", "informatique",
}

var languagesSectionWords = []string{
	"langue", "langues", "languages",
}

var educationSectionWords = []string{
	"formation", "formations", "education", "diplome", "diplomes", "etudes",
}

// roleWords mark a line as a plausible job title.
var roleWords = []string{
	"assistant", "assistante", "executive assistant", "office manager",
	"secretaire", "secretary",
	"developpeur", "developer", "ingenieur", "engineer", "architecte",
	"architect", "technicien", "technician", "administrateur", "devops",
	"data scientist", "analyste", "analyst", "consultant", "consultante",
	"chef de projet", "project manager", "product manager", "product owner",
	"scrum master",
	"manager", "directeur", "directrice", "director", "responsable", "head of",
	"lead", "chief", "ceo", "cto", "cfo", "coo", "president",
	"commercial", "commerciale", "vendeur", "vendeuse", "sales",
	"account manager", "business developer", "charge de", "chargee de",
	"gestionnaire", "comptable", "accountant", "auditeur", "auditor",
	"juriste", "avocat", "lawyer", "paralegal",
	"designer", "graphiste", "redacteur", "redactrice", "writer",
	"marketing", "communication", "community manager",
	"recruteur", "recruteuse", "recruiter", "talent",
	"stagiaire", "intern", "apprenti", "apprentie", "alternant", "alternante",
	"coordinateur", "coordinatrice", "coordinator", "supervisor",
	"superviseur", "conseiller", "conseillere", "advisor",
	"receptionniste", "receptionist", "hote", "hotesse",
	"vendeur conseil", "caissier", "caissiere",
}

// legalSuffixes flag a line as a company name.
var legalSuffixes = []string{
	"sarl", "sas", "sasu", "eurl", "sa", "sci", "scop",
	"inc", "inc.", "corp", "corp.", "co.", "ltd", "ltd.", "llc", "llp",
	"gmbh", "ag", "bv", "nv", "plc", "pllc", "spa", "srl",
	"group", "groupe", "holding", "consulting", "partners", "associes",
	"agency", "agence", "studio", "cabinet",
}

// skillWords seed the whole-document fallback when no skills section exists.
var skillWords = []string{
	"gestion de projet", "project management", "communication", "organisation",
	"organization", "planification", "planning", "negociation", "negotiation",
	"management", "leadership", "travail en equipe", "teamwork",
	"relation client", "customer service", "service client",
	"gestion administrative", "administration", "comptabilite", "accounting",
	"facturation", "billing", "reporting", "budget", "achats", "procurement",
	"recrutement", "recruiting", "paie", "payroll",
	"marketing digital", "digital marketing", "seo", "sea", "crm",
	"redaction", "copywriting", "traduction", "translation",
	"analyse de donnees", "data analysis", "veille", "merchandising",
	"event planning", "organisation d'evenements", "prise de rendez-vous",
	"gestion d'agenda", "agenda management", "travel arrangements",
	"gestion des deplacements", "accueil", "front desk",
}

// softwareWords seed the whole-document fallback for the software field.
var softwareWords = []string{
	"excel", "word", "powerpoint", "outlook", "office 365", "microsoft office",
	"google workspace", "google docs", "sheets", "slides",
	"sap", "oracle", "salesforce", "hubspot", "zoho", "dynamics",
	"sage", "cegid", "quickbooks", "xero",
	"photoshop", "illustrator", "indesign", "figma", "canva", "sketch",
	"jira", "confluence", "trello", "asana", "notion", "monday",
	"slack", "teams", "zoom", "webex",
	"python", "java", "javascript", "typescript", "golang", "php", "ruby",
	"sql", "mysql", "postgresql", "mongodb", "redis",
	"docker", "kubernetes", "aws", "azure", "gcp", "git", "jenkins",
	"linux", "windows server", "active directory",
	"autocad", "solidworks", "revit",
	"wordpress", "shopify", "prestashop", "magento",
	"tableau", "power bi", "looker", "qlik",
	"mailchimp", "sendinblue", "hootsuite",
	"concur", "expensify", "workday", "bamboohr", "successfactors",
}

// languageNames map folded spellings to a canonical display name.
var languageNames = map[string]string{
	"francais":  "Français",
	"french":    "Français",
	"anglais":   "Anglais",
	"english":   "Anglais",
	"espagnol":  "Espagnol",
	"spanish":   "Espagnol",
	"allemand":  "Allemand",
	"german":    "Allemand",
	"italien":   "Italien",
	"italian":   "Italien",
	"portugais": "Portugais",
	"portuguese": "Portugais",
	"chinois":   "Chinois",
	"mandarin":  "Chinois",
	"chinese":   "Chinois",
	"japonais":  "Japonais",
	"japanese":  "Japonais",
	"arabe":     "Arabe",
	"arabic":    "Arabe",
	"russe":     "Russe",
	"russian":   "Russe",
	"neerlandais": "Néerlandais",
	"dutch":     "Néerlandais",
}

// languageLevels are recognized proficiency markers, folded.
var languageLevels = []string{
	"langue maternelle", "maternelle", "native", "natif", "bilingue",
	"bilingual", "courant", "fluent", "professionnel", "professional",
	"intermediaire", "intermediate", "avance", "advanced",
	"scolaire", "notions", "basic", "debutant", "beginner",
	"c2", "c1", "b2", "b1", "a2", "a1", "toeic", "toefl",
}

// degreeWords flag an education entry.
var degreeWords = []string{
	"master", "mastere", "licence", "bachelor", "bts", "dut", "but",
	"doctorat", "phd", "mba", "bac", "baccalaureat", "deug", "deust",
	"cap", "bep", "titre professionnel", "diplome", "degree", "msc", "bsc",
	"ma", "ba", "llm", "certificat", "certificate",
}

// contractTypes are recognized employment contract labels for job postings.
var contractTypes = []string{
	"cdi", "cdd", "interim", "stage", "alternance", "apprentissage",
	"freelance", "independant", "temps plein", "temps partiel",
	"full-time", "full time", "part-time", "part time", "permanent",
	"contract", "internship", "temporary", "fixed-term",
}

// presentWords are end-date synonyms normalized to records.PresentSentinel.
var presentWords = []string{
	"present", "présent", "actuel", "actuellement", "current", "currently",
	"aujourd'hui", "aujourd hui", "en cours", "en poste", "now", "today",
	"à ce jour", "a ce jour", "ce jour",
}
