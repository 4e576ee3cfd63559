package server

import _ "embed"

const pageTemplate = "index"

//go:embed page.html
var pageHTML string
