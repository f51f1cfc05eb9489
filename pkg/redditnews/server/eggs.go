package server

import (
	"encoding/base64"
	"html"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/za419/reddit-news/pkg/redditnews/http11"
)

const (
	coffeeSuffix = "coffee"
	teapotText   = "I'm sorry - I can't make coffee for you.<br>I'm a teapot."
)

// herd is the built-in cow art set.
var herd = []string{
	`        (__)
        (oo)
  /------\/
 / |    ||
*  /\---/\
   ~~   ~~`,
	`         (__)
         (oo)
   /------\/
  / |    ||
 *  ||---||
    ^^   ^^
   Moo.`,
	`           /)  (\
      .-._((,~~.))_.-,
       ` + "`" + `-.   @@   ,-'
         / ,o--o. \
        ( ( .__. ) )
         ) ` + "`" + `----' (
        /          \
       /            \
      /              \
     "'"'"'"'"'"'"'"'"'"`,
	`    ___,,,___ _..............._
   '.    .'   )                  \
     \  /    /                   |\
      \|    /                    | \
       |   (\                    /  |
       \   | \.__          _,-  /   |
        \  |   | '--------'   | |   /
         \_|   |              | |  /
           |   |              | | /
           |___|              |_|`,
}

// loadTeapot returns the base64 form of the teapot picture, or "" when the
// file cannot be read.
func loadTeapot(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Debugf("Could not open teapot image %s: %v", path, err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

func teapotPage(image string) []byte {
	if image == "" {
		return http11.ErrorPage(http11.Status(http11.StatusTeapot), teapotText)
	}
	return http11.ErrorPage(http11.Status(http11.StatusTeapot),
		"I'm sorry - I can't make coffee for you.</p>"+
			`<img src="data:image/png;base64,`+image+`" width=256 height=256><p>I'm a teapot.`)
}

func cowPage(status int) []byte {
	cow := herd[rand.IntN(len(herd))]
	var b strings.Builder
	b.WriteString("</p>\n<pre>\n")
	b.WriteString(html.EscapeString(cow))
	b.WriteString("\n</pre>\n")
	b.WriteString(`<footer style="background-color: #DDD; padding: 10px 10px 2px 10px; margin: 0; width: 100%; bottom: 0; left: 0; position: fixed">`)
	b.WriteString(`ASCii cow art is from <a href="https://www.asciiart.eu/animals/cows">The ASCii Art Archive</a>. `)
	b.WriteString("The figures are property of their original creators, who are identified in the art if they chose to include identification in their work.")
	b.WriteString("</footer>\n<p>")
	return http11.ErrorPage(http11.Status(status), b.String())
}
