package script

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LineKind discriminates the variants of a scripted assistant line.
type LineKind int

const (
	LineText LineKind = iota
	LineLink
	LineProjects
	LineFooter
)

func (k LineKind) String() string {
	switch k {
	case LineText:
		return "text"
	case LineLink:
		return "link"
	case LineProjects:
		return "projects"
	case LineFooter:
		return "footer"
	default:
		return fmt.Sprintf("LineKind(%d)", int(k))
	}
}

// Line is one scripted assistant line. The zero value is an empty text line;
// use the constructors to build valid variants.
type Line struct {
	kind     LineKind
	text     string
	url      string
	download string
	delay    time.Duration
}

// Text returns a plain text line.
func Text(text string) Line {
	return Line{kind: LineText, text: text}
}

// Link returns a line that opens url in a new tab.
func Link(text, url string) Line {
	return Line{kind: LineLink, text: text, url: url}
}

// Download returns a link line that downloads url as name.
func Download(text, url, name string) Line {
	return Line{kind: LineLink, text: text, url: url, download: name}
}

// Projects returns the marker that renders the project cards.
func Projects() Line {
	return Line{kind: LineProjects}
}

// Footer returns the closing footer marker.
func Footer(text string) Line {
	return Line{kind: LineFooter, text: text}
}

// WithDelay returns a copy of l that pauses d before it is played.
func (l Line) WithDelay(d time.Duration) Line {
	l.delay = d
	return l
}

func (l Line) Kind() LineKind       { return l.kind }
func (l Line) Text() string         { return l.text }
func (l Line) URL() string          { return l.url }
func (l Line) DownloadName() string { return l.download }
func (l Line) Delay() time.Duration { return l.delay }
func (l Line) IsFooter() bool       { return l.kind == LineFooter }

func (l Line) validate() error {
	switch l.kind {
	case LineText, LineFooter:
		if strings.TrimSpace(l.text) == "" {
			return fmt.Errorf("%s line has no text", l.kind)
		}
	case LineLink:
		if strings.TrimSpace(l.text) == "" {
			return fmt.Errorf("link line has no text")
		}
		if strings.TrimSpace(l.url) == "" {
			return fmt.Errorf("link %q has no url", l.text)
		}
	case LineProjects:
	default:
		return fmt.Errorf("unknown line kind %d", int(l.kind))
	}
	if l.delay < 0 {
		return fmt.Errorf("negative delay %s", l.delay)
	}
	return nil
}

// lineYAML is the on-disk form of a Line: exactly one of Text, Link,
// Projects or Footer is set.
type lineYAML struct {
	Text     *string       `yaml:"text,omitempty"`
	Link     *linkYAML     `yaml:"link,omitempty"`
	Projects *bool         `yaml:"projects,omitempty"`
	Footer   *string       `yaml:"footer,omitempty"`
	Delay    time.Duration `yaml:"delay,omitempty"`
}

type linkYAML struct {
	Text     string `yaml:"text"`
	URL      string `yaml:"url"`
	Download string `yaml:"download,omitempty"`
}

// UnmarshalYAML decodes the tagged form. A bare scalar is a text line.
func (l *Line) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*l = Text(node.Value)
		return nil
	}

	var raw lineYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}

	set := 0
	for _, ok := range []bool{raw.Text != nil, raw.Link != nil, raw.Projects != nil, raw.Footer != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("line %d: exactly one of text, link, projects, footer is required (got %d)", node.Line, set)
	}

	switch {
	case raw.Text != nil:
		*l = Text(*raw.Text)
	case raw.Link != nil:
		if raw.Link.Download != "" {
			*l = Download(raw.Link.Text, raw.Link.URL, raw.Link.Download)
		} else {
			*l = Link(raw.Link.Text, raw.Link.URL)
		}
	case raw.Projects != nil:
		if !*raw.Projects {
			return fmt.Errorf("line %d: projects marker must be true", node.Line)
		}
		*l = Projects()
	case raw.Footer != nil:
		*l = Footer(*raw.Footer)
	}
	l.delay = raw.Delay
	return nil
}

// MarshalYAML encodes the tagged form.
func (l Line) MarshalYAML() (any, error) {
	out := lineYAML{Delay: l.delay}
	switch l.kind {
	case LineText:
		if l.delay == 0 {
			return l.text, nil
		}
		text := l.text
		out.Text = &text
	case LineLink:
		out.Link = &linkYAML{Text: l.text, URL: l.url, Download: l.download}
	case LineProjects:
		yes := true
		out.Projects = &yes
	case LineFooter:
		text := l.text
		out.Footer = &text
	}
	return out, nil
}
