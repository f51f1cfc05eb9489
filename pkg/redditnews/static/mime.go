package static

import (
	"path/filepath"
	"strings"
)

// DefaultMIME is served for files with no or an unknown extension.
const DefaultMIME = "application/octet-stream"

// MIMETable maps lower-case file extensions to MIME types.
type MIMETable map[string]string

// DefaultMIMETypes returns a fresh copy of the built-in extension table.
func DefaultMIMETypes() MIMETable {
	return MIMETable{
		"es":       "application/ecmascript",
		"epub":     "application/epub+zip",
		"jar":      "application/java-archive",
		"class":    "application/java-vm",
		"js":       "application/javascript",
		"json":     "application/json",
		"mathml":   "application/mathml+xml",
		"doc":      "application/msword",
		"bin":      "application/octet-stream",
		"ogx":      "application/ogg",
		"ogg":      "application/ogg",
		"onetoc":   "application/onenote",
		"pdf":      "application/pdf",
		"ai":       "application/postscript",
		"ps":       "application/postscript",
		"rss":      "application/rss+xml",
		"rtf":      "application/rtf",
		"gram":     "application/srgs",
		"sru":      "application/sru+xml",
		"ssml":     "application/ssml+xml",
		"tsd":      "application/timestamped-data",
		"apk":      "application/vnd.android.package-archive",
		"m3u8":     "application/vnd.apple.mpegurl",
		"ppd":      "application/vnd.cups-ppd",
		"gmx":      "application/vnd.gmx",
		"xls":      "application/vnd.ms.excel",
		"eot":      "application/vnd.ms-fontobject",
		"chm":      "application/vnd.ms-htmlhelp",
		"ppt":      "application/vnd.ms-powerpoint",
		"mus":      "application/vnd.musician",
		"odf":      "application/vnd.oasis.opendocument.formula",
		"odg":      "application/vnd.oasis.opendocument.graphics",
		"odi":      "application/vnd.oasis.opendocument.image",
		"odp":      "application/vnd.oasis.opendocument.presentation",
		"ods":      "application/vnd.oasis.opendocument.spreadsheet",
		"odt":      "application/vnd.oasis.opendocument.text",
		"pptx":     "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"ppsx":     "application/vnd.openxmlformats-officedocument.presentationml.slideshow",
		"xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"rm":       "application/vnd.rn-realmedia",
		"unityweb": "application/vnd.unity",
		"wpd":      "application/vnd.wordperfect",
		"hlp":      "application/winhlp",
		"7z":       "application/x-7z-compressed",
		"dmg":      "application/x-apple-diskimage",
		"bz":       "application/x-bzip",
		"bz2":      "application/x-bzip2",
		"vcd":      "application/x-cdlink",
		"chat":     "application/x-chat",
		"pgn":      "application/x-chess-pgn",
		"csh":      "application/x-csh",
		"deb":      "application/x-debian-package",
		"wad":      "application/x-doom",
		"dvi":      "application/x-dvi",
		"otf":      "application/x-font-otf",
		"pcf":      "application/x-font-pcf",
		"ttf":      "application/x-font-ttf",
		"pfa":      "application/x-font-type1",
		"woff":     "application/x-font-woff",
		"latex":    "application/x-latex",
		"clp":      "application/x-msclip",
		"exe":      "application/x-msdownload",
		"pub":      "application/x-mspublisher",
		"rar":      "application/x-rar-compressed",
		"sh":       "application/x-sh",
		"swf":      "application/x-shockwave-flash",
		"xap":      "application/x-silverlight-app",
		"tar":      "application/x-tar",
		"tex":      "application/x-tex",
		"texinfo":  "application/x-texinfo",
		"xhtml":    "application/xhtml+xml",
		"dtd":      "application/xml+dtd",
		"zip":      "application/zip",
		"mid":      "audio/midi",
		"mp4a":     "audio/mp4",
		"mpga":     "audio/mpeg",
		"oga":      "audio/ogg",
		"dts":      "audio/vnd.dts",
		"dtshd":    "audio/vnd.dts.hd",
		"weba":     "audio/webm",
		"aac":      "audio/x-aac",
		"m3u":      "audio/x-mpegurl",
		"wma":      "audio/x-ms-wma",
		"wav":      "audio/x-wav",
		"bmp":      "image/bmp",
		"gif":      "image/gif",
		"jpg":      "image/jpeg",
		"jpeg":     "image/jpeg",
		"pjpeg":    "image/pjpeg",
		"png":      "image/png",
		"svg":      "image/svg+xml",
		"tiff":     "image/tiff",
		"psd":      "image/vnd.adobe.photoshop",
		"sub":      "image/vnd.dvb.subtitle",
		"webp":     "image/webp",
		"ico":      "image/x-icon",
		"pbm":      "image/x-portable-bitmap",
		"eml":      "message/rfc822",
		"ics":      "text/calendar",
		"css":      "text/css",
		"csv":      "text/csv",
		"html":     "text/html",
		"txt":      "text/plain",
		"rtx":      "text/richtext",
		"sgml":     "text/sgml",
		"tsv":      "text/tab-separated-values",
		"ttl":      "text/turtle",
		"uri":      "text/uri-list",
		"curl":     "text/vnd.curl",
		"scurl":    "text/vnd.curl.scurl",
		"s":        "text/x-asm",
		"c":        "text/x-c",
		"f":        "text/x-fortran",
		"java":     "text/x-java-source",
		"vcs":      "text/x-vcalendar",
		"vcf":      "text/x-vcard",
		"yaml":     "text/yaml",
		"3gp":      "video/3gpp",
		"3g2":      "video/3gpp2",
		"h264":     "video/h264",
		"jpgv":     "video/jpeg",
		"mp4":      "video/mp4",
		"mpeg":     "video/mpeg",
		"ogv":      "video/ogg",
		"qt":       "video/quicktime",
		"mxu":      "video/vnd.mpegurl",
		"webm":     "video/webm",
		"f4v":      "video/x-f4v",
		"flv":      "video/x-flv",
		"m4v":      "video/x-m4v",
		"wmv":      "video/x-ms-wmv",
		"avi":      "video/x-msvideo",
	}
}

// Lookup returns the MIME type for name by its last extension.
func (t MIMETable) Lookup(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return DefaultMIME
	}
	if mime, ok := t[strings.ToLower(ext[1:])]; ok {
		return mime
	}
	return DefaultMIME
}
