package data

import _ "embed"

//go:embed help.en.template
var HelpTemplate string

//go:embed items.en.json
var ItemsJSON []byte

//go:embed phrases.en.json
var PhrasesJSON []byte
