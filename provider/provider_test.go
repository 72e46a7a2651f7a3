package provider_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/fakedb/id"
	"github.com/jacentio/fakedb/provider"
	"github.com/jacentio/fakedb/store"
)

func setup(t *testing.T) (*provider.Provider, *store.Storage) {
	t.Helper()
	s := store.New(store.DefaultConfig())
	return provider.New("", s, nil), s
}

func addItem(t *testing.T, s *store.Storage, name string, fields map[string]string) *store.Item {
	t.Helper()
	item := store.NewItem(name)
	for k, v := range fields {
		require.NoError(t, item.AddFieldValue(k, v))
	}
	require.NoError(t, s.AddFakeItem(item))
	return item
}

func def(item *store.Item) provider.ItemDefinition {
	return provider.ItemDefinition{ID: item.ID, Name: item.Name, TemplateID: item.TemplateID}
}

func TestStorage_ResolutionOrder(t *testing.T) {
	ctx := context.Background()
	explicit := store.New(store.Config{Name: t.Name()})
	carried := store.New(store.Config{Name: t.Name()})
	ambient := store.New(store.Config{Name: t.Name()})

	_, err := provider.New(t.Name(), nil, nil).Storage(ctx)
	assert.ErrorIs(t, err, store.ErrNoStorage)

	defer store.Enter(ambient)()
	p := provider.New(t.Name(), nil, nil)
	got, err := p.Storage(ctx)
	require.NoError(t, err)
	assert.Same(t, ambient, got)

	got, err = p.Storage(store.NewContext(ctx, carried))
	require.NoError(t, err)
	assert.Same(t, carried, got)

	got, err = provider.New(t.Name(), explicit, nil).Storage(store.NewContext(ctx, carried))
	require.NoError(t, err)
	assert.Same(t, explicit, got)
}

func TestNew_DatabaseFromStorage(t *testing.T) {
	s := store.New(store.Config{Name: "web"})
	assert.Equal(t, "web", provider.New("", s, nil).Database())
	assert.Equal(t, "master", provider.New("", nil, nil).Database())
}

func TestGetItemDefinition(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()
	item := addItem(t, s, "home", nil)

	got := p.GetItemDefinition(ctx, item.ID)
	require.NotNil(t, got)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, "home", got.Name)
	assert.Equal(t, item.TemplateID, got.TemplateID)

	assert.Nil(t, p.GetItemDefinition(ctx, id.New()))

	require.NoError(t, s.Update(item.ID, func(i *store.Item) error {
		i.Access.CanRead = false
		return nil
	}))
	assert.Nil(t, p.GetItemDefinition(ctx, item.ID))

	assert.Nil(t, provider.New(t.Name(), nil, nil).GetItemDefinition(ctx, item.ID))
}

func TestCreateItem_StartsWithoutVersions(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()
	itemID := id.New()

	ok, err := p.CreateItem(ctx, itemID, "new item", id.FolderTemplate, provider.ItemDefinition{ID: id.ContentRoot})
	require.NoError(t, err)
	assert.True(t, ok)

	item := s.GetFakeItem(itemID)
	require.NotNil(t, item)
	assert.Equal(t, id.FolderTemplate, item.TemplateID)
	assert.Equal(t, "/sitecore/content/new item", item.FullPath)

	versions, err := p.GetItemVersions(ctx, def(item))
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestCreateItem_Errors(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()

	_, err := p.CreateItem(ctx, id.Null, "x", id.FolderTemplate, provider.ItemDefinition{ID: id.ContentRoot})
	assert.ErrorIs(t, err, store.ErrInvalidArgument)

	_, err = p.CreateItem(ctx, id.New(), "x", id.FolderTemplate, provider.ItemDefinition{ID: id.New()})
	assert.ErrorIs(t, err, store.ErrParentNotFound)

	locked := addItem(t, s, "locked", nil)
	require.NoError(t, s.Update(locked.ID, func(i *store.Item) error {
		i.Access.CanCreate = false
		return nil
	}))
	_, err = p.CreateItem(ctx, id.New(), "x", id.FolderTemplate, def(locked))
	assert.ErrorIs(t, err, store.ErrAccessDenied)
}

func TestCopyItem(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()
	src := addItem(t, s, "source", map[string]string{"Title": "hello"})
	shared := store.NewField("Tags")
	shared.Shared = true
	require.NoError(t, shared.Add("en", "a|b"))
	require.NoError(t, s.Update(src.ID, func(i *store.Item) error { return i.AddField(shared) }))
	dest := addItem(t, s, "dest", nil)

	copyID := id.New()
	ok, err := p.CopyItem(ctx, def(src), def(dest), "copy", copyID)
	require.NoError(t, err)
	assert.True(t, ok)

	c := s.GetFakeItem(copyID)
	require.NotNil(t, c)
	assert.Equal(t, dest.ID, c.ParentID)
	assert.Equal(t, "hello", c.FieldByName("Title").Value("en"))
	assert.Equal(t, "a|b", c.Field(shared.ID).Value("da"))

	_, err = p.CopyItem(ctx, provider.ItemDefinition{ID: id.New()}, def(dest), "x", id.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = p.CopyItem(ctx, def(src), def(dest), "", id.New())
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
}

func TestMoveItem(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()
	item := addItem(t, s, "item", nil)
	dest := addItem(t, s, "dest", nil)

	ok, err := p.MoveItem(ctx, def(item), def(dest))
	require.NoError(t, err)
	assert.True(t, ok)

	children, err := p.GetChildIDs(ctx, def(dest))
	require.NoError(t, err)
	assert.Equal(t, []id.ID{item.ID}, children)
	parent, err := p.GetParentID(ctx, def(item))
	require.NoError(t, err)
	assert.Equal(t, dest.ID, parent)
	assert.Equal(t, "/sitecore/content/item", item.FullPath)

	_, err = p.MoveItem(ctx, def(item), provider.ItemDefinition{ID: id.New()})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteItem(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()
	item := addItem(t, s, "item", nil)

	ok, err := p.DeleteItem(ctx, def(item))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, s.GetFakeItem(item.ID))

	ok, err = p.DeleteItem(ctx, def(item))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChangeTemplate(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()
	item := addItem(t, s, "item", map[string]string{"Title": "x"})

	ok, err := p.ChangeTemplate(ctx, def(item), id.FolderTemplate)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id.FolderTemplate, item.TemplateID)
	assert.Equal(t, "x", item.FieldByName("Title").Value("en"))

	_, err = p.ChangeTemplate(ctx, def(item), id.Null)
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
	_, err = p.ChangeTemplate(ctx, provider.ItemDefinition{ID: id.New()}, id.FolderTemplate)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVersions(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()
	item := addItem(t, s, "item", map[string]string{"Title": "v1"})

	count, err := p.AddVersion(ctx, def(item), provider.VersionURI{Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = p.AddVersion(ctx, def(item), provider.VersionURI{Language: "da"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	versions, err := p.GetItemVersions(ctx, def(item))
	require.NoError(t, err)
	assert.Equal(t, []provider.VersionURI{
		{Language: "da", Version: 1},
		{Language: "en", Version: 1},
		{Language: "en", Version: 2},
	}, versions)

	removed, err := p.RemoveVersion(ctx, def(item), provider.VersionURI{Language: "en", Version: 1})
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = p.RemoveVersion(ctx, def(item), provider.VersionURI{Language: "en", Version: 1})
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = p.AddVersion(ctx, provider.ItemDefinition{ID: id.New()}, provider.VersionURI{Language: "en"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetItemFields(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()
	item := addItem(t, s, "item", map[string]string{"Title": "Welcome!"})

	fields, err := p.GetItemFields(ctx, def(item), provider.VersionURI{Language: "en", Version: 1})
	require.NoError(t, err)
	assert.Equal(t, "Welcome!", fields[item.FieldByName("Title").ID])
	_, ok := fields[id.FieldHidden]
	assert.True(t, ok)

	fields, err = p.GetItemFields(ctx, provider.ItemDefinition{ID: id.New()}, provider.VersionURI{})
	require.NoError(t, err)
	assert.Nil(t, fields)
}

func TestSaveItem_Rename(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()
	item := addItem(t, s, "Old Name", nil)

	ok, err := p.SaveItem(ctx, def(item), provider.ItemChanges{
		Properties: map[string]string{provider.PropertyName: "New Name"},
	})
	require.NoError(t, err)
	assert.False(t, ok, "SaveItem reports false even when the save succeeds")
	assert.Equal(t, "New Name", item.Name)
	assert.Equal(t, "/sitecore/content/new name", item.FullPath)

	resolved, err := p.ResolvePath(ctx, "/sitecore/content/New Name")
	require.NoError(t, err)
	assert.Equal(t, item.ID, resolved)
}

func TestSaveItem_Fields(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()
	item := addItem(t, s, "item", map[string]string{"Title": "old"})
	title := item.FieldByName("Title")
	extra := id.New()

	ok, err := p.SaveItem(ctx, def(item), provider.ItemChanges{
		FieldChanges: []provider.FieldChange{
			{FieldID: title.ID, Language: "en", Version: 1, Value: "new"},
			{FieldID: extra, Language: "en", Version: 1, Value: "added"},
		},
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "new", title.Get("en", 1))
	require.NotNil(t, item.Field(extra))
	assert.Equal(t, "added", item.Field(extra).Get("en", 1))
}

func TestSaveItem_MissingItem(t *testing.T) {
	p, _ := setup(t)
	ok, err := p.SaveItem(context.Background(), provider.ItemDefinition{ID: id.New()}, provider.ItemChanges{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveItem_AccessGates(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()
	item := addItem(t, s, "item", map[string]string{"Title": "old"})
	require.NoError(t, s.Update(item.ID, func(i *store.Item) error {
		i.Access.CanWrite = false
		i.Access.CanRename = false
		return nil
	}))

	_, err := p.SaveItem(ctx, def(item), provider.ItemChanges{
		Properties: map[string]string{provider.PropertyName: "renamed"},
	})
	assert.ErrorIs(t, err, store.ErrAccessDenied)
	assert.Equal(t, "item", item.Name)

	_, err = p.SaveItem(ctx, def(item), provider.ItemChanges{
		FieldChanges: []provider.FieldChange{{FieldID: item.FieldByName("Title").ID, Value: "new"}},
	})
	assert.ErrorIs(t, err, store.ErrAccessDenied)
	assert.Equal(t, "old", item.FieldByName("Title").Value("en"))
}

func TestResolvePath(t *testing.T) {
	p, _ := setup(t)
	ctx := context.Background()

	got, err := p.ResolvePath(ctx, "/sitecore/content/")
	require.NoError(t, err)
	assert.Equal(t, id.ContentRoot, got)

	got, err = p.ResolvePath(ctx, "/sitecore/nothing")
	require.NoError(t, err)
	assert.True(t, got.IsNull())

	_, err = provider.New(t.Name(), nil, nil).ResolvePath(ctx, "/sitecore")
	assert.ErrorIs(t, err, store.ErrNoStorage)
}

func TestGetParentID_Root(t *testing.T) {
	p, _ := setup(t)
	parent, err := p.GetParentID(context.Background(), provider.ItemDefinition{ID: id.RootItem})
	require.NoError(t, err)
	assert.True(t, parent.IsNull())

	parent, err = p.GetParentID(context.Background(), provider.ItemDefinition{ID: id.ContentRoot})
	require.NoError(t, err)
	assert.Equal(t, id.RootItem, parent)
}

func TestSelect(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()
	item := addItem(t, s, "home", nil)

	got, err := p.SelectSingleID(ctx, "fast:/sitecore/content/home")
	require.NoError(t, err)
	assert.Equal(t, item.ID, got)

	ids, err := p.SelectIDs(ctx, "fast:/sitecore/content/*[@@name='home']")
	require.NoError(t, err)
	assert.Equal(t, []id.ID{item.ID}, ids)

	got, err = p.SelectSingleID(ctx, "/sitecore/content/missing")
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestBlobStream(t *testing.T) {
	p, _ := setup(t)
	ctx := context.Background()
	blobID := uuid.New()

	ok, err := p.SetBlobStream(ctx, strings.NewReader("payload"), blobID)
	require.NoError(t, err)
	assert.True(t, ok)

	r, err := p.GetBlobStream(ctx, blobID)
	require.NoError(t, err)
	require.NotNil(t, r)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = p.SetBlobStream(ctx, nil, blobID)
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
}

func TestGetLanguages_Empty(t *testing.T) {
	p, _ := setup(t)
	langs := p.GetLanguages(context.Background())
	assert.NotNil(t, langs)
	assert.Empty(t, langs)
}

func TestPublishQueue(t *testing.T) {
	p, _ := setup(t)
	ctx := provider.NewScope(context.Background())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a, b, c := id.New(), id.New(), id.New()

	for _, q := range []struct {
		id   id.ID
		date time.Time
	}{
		{a, base},
		{b, base.Add(time.Hour)},
		{a, base.Add(2 * time.Hour)},
		{c, base.Add(48 * time.Hour)},
	} {
		ok, err := p.AddToPublishQueue(ctx, q.id, "Publish", q.date)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	assert.Equal(t, []id.ID{a, b}, p.GetPublishQueue(ctx, base, base.Add(24*time.Hour)))
	assert.Equal(t, []id.ID{b, a}, p.GetPublishQueue(ctx, base.Add(time.Hour), base.Add(2*time.Hour)))
	assert.Empty(t, p.GetPublishQueue(ctx, base.Add(-2*time.Hour), base.Add(-time.Hour)))
}

func TestPublishQueue_ScopeIsolation(t *testing.T) {
	p, _ := setup(t)
	now := time.Now()
	first := provider.NewScope(context.Background())
	second := provider.NewScope(context.Background())

	_, err := p.AddToPublishQueue(first, id.New(), "Publish", now)
	require.NoError(t, err)

	assert.Len(t, p.GetPublishQueue(first, now.Add(-time.Minute), now.Add(time.Minute)), 1)
	assert.Empty(t, p.GetPublishQueue(second, now.Add(-time.Minute), now.Add(time.Minute)))
	assert.Empty(t, p.GetPublishQueue(context.Background(), now.Add(-time.Minute), now.Add(time.Minute)))

	_, err = p.AddToPublishQueue(context.Background(), id.New(), "Publish", now)
	assert.ErrorIs(t, err, provider.ErrNoScope)
}

func TestProperties(t *testing.T) {
	p, _ := setup(t)
	ctx := provider.NewScope(context.Background())

	_, ok := p.GetProperty(ctx, "key")
	assert.False(t, ok)

	require.NoError(t, p.SetProperty(ctx, "key", "value"))
	v, ok := p.GetProperty(ctx, "key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	_, ok = p.GetProperty(provider.NewScope(context.Background()), "key")
	assert.False(t, ok)

	assert.ErrorIs(t, p.SetProperty(ctx, "", "x"), store.ErrInvalidArgument)
	assert.ErrorIs(t, p.SetProperty(context.Background(), "key", "x"), provider.ErrNoScope)
}
