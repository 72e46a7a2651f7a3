package store

import "github.com/jacentio/fakedb/id"

// RootSecurity is the access rule stored on the root item.
const RootSecurity = "ar|Everyone|p*|+*|"

type seedNode struct {
	id         id.ID
	name       string
	templateID id.ID
	parentID   id.ID
	path       string
	template   bool
	// database limits the node to one database when set.
	database string
}

// seedNodes is the default tree present in every new storage, plus the
// nodes specific to one database.
var seedNodes = []seedNode{
	{id.RootItem, "sitecore", id.RootTemplate, id.Null, "/sitecore", false, ""},
	{id.ContentRoot, "content", id.MainSectionTemplate, id.RootItem, "/sitecore/content", false, ""},
	{id.TemplateRoot, "templates", id.MainSectionTemplate, id.RootItem, "/sitecore/templates", false, ""},
	{id.BranchesRoot, "Branches", id.BranchFolderTemplate, id.TemplateRoot, "/sitecore/templates/Branches", false, ""},
	{id.SystemRoot, "system", id.MainSectionTemplate, id.RootItem, "/sitecore/system", false, ""},
	{id.MediaLibraryRoot, "media library", id.MainSectionTemplate, id.RootItem, "/sitecore/media library", false, ""},

	{id.TemplateTemplate, "Template", id.TemplateTemplate, id.TemplateRoot, "/sitecore/templates/template", true, ""},
	{id.TemplateSection, "Template section", id.TemplateSection, id.TemplateRoot, "/sitecore/templates/template section", true, ""},
	{id.TemplateField, "Template field", id.TemplateField, id.TemplateRoot, "/sitecore/templates/template field", true, ""},
	{id.BranchTemplate, "Branch", id.TemplateTemplate, id.TemplateRoot, "/sitecore/templates/branch", true, ""},

	{id.RootTemplate, "Sitecore", id.TemplateTemplate, id.TemplateRoot, "/sitecore/templates/sitecore", true, ""},
	{id.MainSectionTemplate, "Main Section", id.TemplateTemplate, id.TemplateRoot, "/sitecore/templates/main section", true, ""},
	{id.BranchFolderTemplate, "Branch Folder", id.TemplateTemplate, id.TemplateRoot, "/sitecore/templates/branch folder", true, ""},
	{id.FolderTemplate, "Folder", id.TemplateTemplate, id.TemplateRoot, "/sitecore/templates/folder", true, ""},
	{id.StandardTemplate, "Standard template", id.TemplateTemplate, id.TemplateRoot, "/sitecore/templates/standard template", true, ""},

	{id.FieldTypesRoot, "Field Types", id.FolderTemplate, id.SystemRoot, "/sitecore/system/field types", false, CoreDatabase},
}

// seed registers the default tree. Seeds skip template resolution and
// template tree building.
func (s *Storage) seed() {
	for _, n := range seedNodes {
		if n.database != "" && n.database != s.config.Name {
			continue
		}
		item := NewItemWithTemplate(n.name, n.id, n.templateID)
		item.ParentID = n.parentID
		item.FullPath = n.path
		item.IsTemplate = n.template
		item.markVersion(s.config.DefaultLanguage, 1)

		switch n.id {
		case id.RootItem:
			f := NewFieldWithID(id.FieldSecurity)
			_ = f.AddVersion(s.config.DefaultLanguage, 1, RootSecurity)
			_ = item.AddField(f)
		case id.StandardTemplate:
			for _, sf := range standardFields {
				_ = item.AddField(&Field{ID: sf.ID, Name: sf.Name, Shared: sf.Shared, Type: sf.Type})
			}
		}
		s.insert(item)
	}
}

// IsSeed reports whether itemID belongs to the default tree.
func IsSeed(itemID id.ID) bool {
	for _, n := range seedNodes {
		if n.id == itemID {
			return true
		}
	}
	return false
}
