package emit

import (
	"strings"

	"github.com/arthur-debert/appdirbuilder/pkg/config"
	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/beevik/etree"
)

// MetainfoDest is the AppDir destination of the AppStream metainfo file.
func MetainfoDest(reverseDNS string) string {
	return "/usr/share/metainfo/" + reverseDNS + ".appdata.xml"
}

// RenderMetainfo builds a minimal AppStream component describing the
// application from the desktop entry and reverse DNS id.
func RenderMetainfo(p config.Policy) ([]byte, error) {
	id := p.Runtime.ReverseDNS
	if id == "" {
		return nil, errors.New(errors.ErrInvalidInput, "metainfo requires a reverse DNS id")
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	component := doc.CreateElement("component")
	component.CreateAttr("type", "desktop-application")
	component.CreateElement("id").SetText(id)
	component.CreateElement("metadata_license").SetText("CC0-1.0")

	name := p.DesktopEntry.Get("Name")
	if name == "" {
		name = p.DesktopEntry.Get("X-AppImage-Name")
	}
	if name == "" {
		parts := strings.Split(id, ".")
		name = parts[len(parts)-1]
	}
	component.CreateElement("name").SetText(name)

	if comment := p.DesktopEntry.Get("Comment"); comment != "" {
		component.CreateElement("summary").SetText(comment)
	}

	launchable := component.CreateElement("launchable")
	launchable.CreateAttr("type", "desktop-id")
	launchable.SetText(DesktopFileName(id))

	if categories := splitCategories(p.DesktopEntry.Get("Categories")); len(categories) > 0 {
		el := component.CreateElement("categories")
		for _, c := range categories {
			el.CreateElement("category").SetText(c)
		}
	}

	if version := p.DesktopEntry.Get("X-AppImage-Version"); version != "" && version != "latest" {
		release := component.CreateElement("releases").CreateElement("release")
		release.CreateAttr("version", version)
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to render metainfo")
	}
	return out, nil
}

func splitCategories(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ";") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
