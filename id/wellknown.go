package id

// Seeded tree nodes.
var (
	RootItem         = MustParse("{11111111-1111-1111-1111-111111111111}")
	ContentRoot      = MustParse("{0DE95AE4-41AB-4D01-9EB0-67441B7C2450}")
	TemplateRoot     = MustParse("{3C1715FE-6A13-4FCF-845F-DE308BA9741D}")
	BranchesRoot     = MustParse("{BAD98E0E-C1B5-4598-AC13-21B06218B30C}")
	SystemRoot       = MustParse("{13D6D6C6-C50B-4BBD-B331-2B04F1A58F21}")
	MediaLibraryRoot = MustParse("{3D6658D8-A0BF-4E75-B3E2-D050FABCF4E1}")
	FieldTypesRoot   = MustParse("{76E6D8C7-1F93-4712-872B-DA3C96B808F2}")
)

// Structural and supporting templates.
var (
	TemplateTemplate     = MustParse("{AB86861A-6030-46C5-B394-E8F99E8B87DB}")
	TemplateSection      = MustParse("{E269FBB5-3750-427A-9149-7AA950B49301}")
	TemplateField        = MustParse("{455A3E98-A627-4B40-8035-E683A0331AC7}")
	BranchTemplate       = MustParse("{35E75C72-4985-4E09-88C3-0EAC6CD1E64F}")
	RootTemplate         = MustParse("{C6576836-910C-4A3D-BA03-C277DBD3B827}")
	MainSectionTemplate  = MustParse("{E3E2D58C-DF95-4230-ADC9-279924CECE84}")
	BranchFolderTemplate = MustParse("{85ADBF5B-E836-4932-A333-FE0F9FA1ED1E}")
	FolderTemplate       = MustParse("{A87A00B1-E6DB-45AB-8B54-636FEC3B5523}")
	StandardTemplate     = MustParse("{1930BBEB-7805-471A-A3BE-4858AC7CF696}")
)

// Fields declared on template field definition items.
var (
	TemplateFieldType   = MustParse("{AB162CC0-DC80-4ABF-8871-998EE5D7BA32}")
	TemplateFieldShared = MustParse("{BE351A73-FCB0-4213-93FA-C302D8AB4F51}")
	TemplateFieldSource = MustParse("{1EB8AE32-E190-44A6-968D-ED904C794EBF}")
)

// Standard fields.
var (
	FieldSecurity       = MustParse("{DEC8D2D5-E3CF-48B6-A653-8E69E2716641}")
	FieldHidden         = MustParse("{39C4902E-9960-4469-AEEF-E878E9C8218F}")
	FieldBaseTemplate   = MustParse("{12C33F3F-86C5-43A5-AEB4-5598CEC45116}")
	FieldStandardValues = MustParse("{F7D48A55-2158-4F02-9356-756654404F73}")
	FieldSortorder      = MustParse("{BA3F86A2-4A1C-4D78-B63D-91C2779C1B5E}")
	FieldCreated        = MustParse("{25BED78C-4957-4165-998A-CA1B52F67497}")
	FieldUpdated        = MustParse("{D9CF14B1-FA16-4BA6-9288-E8A174D4D522}")
	FieldRevision       = MustParse("{8CDC337E-A112-42FB-BBB4-4143751E123F}")
	FieldDisplayName    = MustParse("{B5E02AD9-D56F-4C41-A065-A133DB87BDEB}")
	FieldWorkflow       = MustParse("{A4F985D9-98B3-4B52-AAAF-4344F6E747C6}")
	FieldWorkflowState  = MustParse("{3E431DE1-525E-47A3-B6B0-1CCBEC3A8C98}")
	FieldOwner          = MustParse("{52807595-0F8F-4B20-8D2A-CB71D28C6103}")
)
