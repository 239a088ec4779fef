package prompts

import _ "embed"

// Embedded prompt files

//go:embed medical_rag.txt
var medicalRAG string

//go:embed query_expansion.txt
var queryExpansion string

func MedicalRAG() string     { return medicalRAG }
func QueryExpansion() string { return queryExpansion }
