package renderer

import (
	"regexp"
	"strings"
)

// frameworkMarkers map a framework name to fragments its unrendered shells
// leave in the HTML. Order matters: meta frameworks come before the
// libraries they build on.
var frameworkMarkers = []struct {
	name    string
	markers []string
}{
	{"Next.js", []string{`<div id="__next"></div>`, `__next_data__`, `_next/static`}},
	{"Nuxt", []string{`window.__nuxt__`, `__nuxt__`, `<div id="__nuxt">`}},
	{"React", []string{`<div id="root"></div>`, `data-reactroot`, `__react_devtools_global_hook__`}},
	{"Vue", []string{`<div id="app"></div>`, `__vue__`, `v-cloak`, `vue.createapp`}},
	{"Angular", []string{`ng-version`, `ng-app`, `<app-root>`}},
	{"Svelte", []string{`__svelte`, `svelte-`}},
}

// stateMarkers are framework-neutral hydration globals
var stateMarkers = []string{
	`window.__initial_state__`,
	`window.__state__`,
	`window.__preloaded_state__`,
}

// contentMinLength is the visible text length under which a script heavy
// page counts as an unrendered shell
const contentMinLength = 500

var (
	scriptTagRegex = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlTagRegex   = regexp.MustCompile(`<[^>]+>`)
)

// NeedsJSRendering reports whether html looks like a client rendered shell
// whose data only appears after scripts run
func NeedsJSRendering(html string) bool {
	lower := strings.ToLower(html)
	if DetectFramework(html) != "" {
		return true
	}
	for _, m := range stateMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}

	text := strings.TrimSpace(htmlTagRegex.ReplaceAllString(scriptTagRegex.ReplaceAllString(html, ""), ""))
	return len(text) < contentMinLength && strings.Count(lower, "<script") > 3
}

// DetectFramework names the SPA framework html was built with, or returns
// the empty string
func DetectFramework(html string) string {
	lower := strings.ToLower(html)
	for _, fw := range frameworkMarkers {
		for _, m := range fw.markers {
			if strings.Contains(lower, m) {
				return fw.name
			}
		}
	}
	return ""
}
