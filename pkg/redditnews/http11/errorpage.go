package http11

import (
	"html"
	"strings"
)

const errorPageTemplate = `<!DOCTYPE html>
<html lang='en'>
  <head>
    <meta charset='utf-8'>
    <title>{title}</title>
  </head>
  <body>
    <h1 style='text-align: center; width:100%'>{title}</h1>
    <p>{description}</p>
  </body>
</html>
`

// ErrorPage renders the HTML page sent with error statuses. The description
// is inserted as markup: callers escape anything taken from the request.
func ErrorPage(title, description string) []byte {
	return []byte(strings.NewReplacer(
		"{title}", html.EscapeString(title),
		"{description}", description,
	).Replace(errorPageTemplate))
}
