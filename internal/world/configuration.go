package world

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/carbongdt/carbon/internal/persist"
	"github.com/carbongdt/carbon/internal/reference"
)

// SceneDescriptor is one row of the Scenes table.
type SceneDescriptor struct {
	ID          uint32
	Name        string
	Description string
	Flags       uint32
}

type typeCategory int

const (
	categoryObject typeCategory = iota
	categorySubElement
	categorySceneElement
)

func (c typeCategory) String() string {
	switch c {
	case categoryObject:
		return "object"
	case categorySubElement:
		return "object sub-element"
	case categorySceneElement:
		return "scene element"
	}
	return "unknown"
}

type typeTable struct {
	table   string
	keyCol  string
	persist map[uuid.UUID]int64
	byKey   map[int64]uuid.UUID
}

// Configuration holds the world header and the persisted type and scene
// catalogues. It is owned by a World and shares its connection.
type Configuration struct {
	db    *persist.DB
	types *Registry
	log   *zap.Logger

	version     Version
	worldType   WorldType
	worldID     uuid.UUID
	name        string
	description string
	nextRefID   reference.ID

	catalogues [3]*typeTable

	hasScenes    bool
	scenes       []SceneDescriptor
	scenesByName map[string]int
	fold         cases.Caser
}

func newConfiguration(db *persist.DB, types *Registry, log *zap.Logger) *Configuration {
	c := &Configuration{
		db:    db,
		types: types,
		log:   log,
		fold:  cases.Fold(),
	}
	c.catalogues[categoryObject] = &typeTable{table: "ObjectTypes", keyCol: "ObjectTypeId"}
	c.catalogues[categorySubElement] = &typeTable{table: "ObjectSubElementTypes", keyCol: "SubElementTypeId"}
	c.catalogues[categorySceneElement] = &typeTable{table: "SceneElementTypes", keyCol: "SceneElementTypeId"}
	c.reset()
	return c
}

func (c *Configuration) reset() {
	for _, t := range c.catalogues {
		t.persist = make(map[uuid.UUID]int64)
		t.byKey = make(map[int64]uuid.UUID)
	}
	c.scenes = nil
	c.scenesByName = make(map[string]int)
}

func (c *Configuration) Version() Version     { return c.version }
func (c *Configuration) WorldType() WorldType { return c.worldType }
func (c *Configuration) WorldID() uuid.UUID   { return c.worldID }
func (c *Configuration) Name() string         { return c.name }
func (c *Configuration) Description() string  { return c.description }

// New stamps a freshly laid out database with a world identity.
func (c *Configuration) New(worldType WorldType) error {
	id := uuid.New()
	q, err := c.db.Prepare(`UPDATE 'Configuration' SET WorldType = ?1, WorldId = ?2`)
	if err != nil {
		return err
	}
	if err := q.Exec(string(worldType), id); err != nil {
		return fmt.Errorf("initialize configuration: %w", err)
	}
	c.worldType = worldType
	c.worldID = id
	return nil
}

// SetName renames the world.
func (c *Configuration) SetName(name string) error {
	q, err := c.db.Prepare(`UPDATE 'Configuration' SET Name = ?1`)
	if err != nil {
		return err
	}
	if err := q.Exec(name); err != nil {
		return fmt.Errorf("set world name: %w", err)
	}
	c.name = name
	return nil
}

// Load reads the header and catalogues. When allowUpgrade is set and the
// connection is writable, an older schema is migrated first. A version
// outside [min, max] fails with ErrVersionMismatch.
func (c *Configuration) Load(ctx context.Context, min, max Version, allowUpgrade bool) error {
	if err := c.readHeader(); err != nil {
		return err
	}
	if allowUpgrade && !c.db.ReadOnly() && c.version.Compare(CurrentVersion) < 0 {
		c.log.Info("upgrading world schema",
			zap.Stringer("from", c.version), zap.Stringer("to", CurrentVersion),
			zap.String("db", c.db.Path()))
		if err := persist.Upgrade(ctx, c.db.Path()); err != nil {
			c.log.Error("schema upgrade failed", zap.String("db", c.db.Path()), zap.Error(err))
			return fmt.Errorf("upgrade world: %w", err)
		}
		if err := c.readHeader(); err != nil {
			return err
		}
	}
	if c.version.Compare(min) < 0 || c.version.Compare(max) > 0 {
		c.log.Error("world version not supported",
			zap.Stringer("actual", c.version), zap.Stringer("min", min), zap.Stringer("max", max))
		return fmt.Errorf("%w: %s not in [%s, %s]", ErrVersionMismatch, c.version, min, max)
	}

	c.reset()
	for cat, t := range c.catalogues {
		if err := c.readCatalogue(typeCategory(cat), t); err != nil {
			return err
		}
	}
	ok, err := c.db.TableExists("Scenes")
	if err != nil {
		return err
	}
	c.hasScenes = ok
	if ok {
		if err := c.readScenes(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Configuration) readHeader() error {
	q, err := c.db.NewQuery(`SELECT * FROM 'Configuration'`)
	if err != nil {
		return err
	}
	defer q.Close()
	if !q.Step(false) {
		return fmt.Errorf("read configuration: %s", q.LastError())
	}
	if !q.HasRow() {
		return errors.New("read configuration: no configuration row")
	}
	var (
		worldType string
		worldID   string
		next      int64
	)
	err = errors.Join(
		q.Column("Version", &c.version.Version),
		q.Column("Subversion", &c.version.Subversion),
		q.Column("Revision", &c.version.Revision),
		q.Column("WorldType", &worldType),
		q.Column("WorldId", &worldID),
		q.Column("Name", &c.name),
		q.Column("NextRefId", &next),
	)
	if err != nil {
		return fmt.Errorf("read configuration: %w", err)
	}
	c.description = ""
	if !q.IsNull("Description") {
		q.Column("Description", &c.description)
	}
	c.worldType = WorldType(worldType)
	c.worldID = uuid.Nil
	if worldID != "" {
		if c.worldID, err = uuid.Parse(worldID); err != nil {
			return fmt.Errorf("read configuration: world id: %w", err)
		}
	}
	if next <= 0 || next >= int64(reference.InternalBase) {
		return fmt.Errorf("read configuration: next reference id %d out of range", next)
	}
	c.nextRefID = reference.ID(next)
	return nil
}

func (c *Configuration) readCatalogue(cat typeCategory, t *typeTable) error {
	q, err := c.db.NewQuery(fmt.Sprintf(`SELECT %s AS Id, Identifier FROM '%s'`, t.keyCol, t.table))
	if err != nil {
		return err
	}
	defer q.Close()
	return q.Each(func(q *persist.Query) error {
		var (
			key int64
			uid uuid.UUID
		)
		if err := errors.Join(q.Column("Id", &key), q.Column("Identifier", &uid)); err != nil {
			return fmt.Errorf("read %s types: %w", cat, err)
		}
		t.persist[uid] = key
		t.byKey[key] = uid
		return nil
	})
}

func (c *Configuration) readScenes() error {
	q, err := c.db.NewQuery(`SELECT SceneId, Name, Description, Flags FROM 'Scenes' ORDER BY SceneId`)
	if err != nil {
		return err
	}
	defer q.Close()
	return q.Each(func(q *persist.Query) error {
		var d SceneDescriptor
		err := errors.Join(
			q.Column("SceneId", &d.ID),
			q.Column("Name", &d.Name),
			q.Column("Description", &d.Description),
			q.Column("Flags", &d.Flags),
		)
		if err != nil {
			return fmt.Errorf("read scenes: %w", err)
		}
		c.addScene(d)
		return nil
	})
}

func (c *Configuration) addScene(d SceneDescriptor) {
	c.scenesByName[c.fold.String(d.Name)] = len(c.scenes)
	c.scenes = append(c.scenes, d)
}

// GenerateRefID hands out the next persistent reference id. The in-memory
// counter never rewinds, so ids stay unique when an enclosing savepoint
// rolls back the stored counter.
func (c *Configuration) GenerateRefID() (reference.ID, error) {
	id := c.nextRefID
	if id == 0 || (id+1).IsInternal() {
		return 0, errors.New("generate reference id: persistent id range exhausted")
	}
	q, err := c.db.Prepare(`UPDATE 'Configuration' SET NextRefId = ?1`)
	if err != nil {
		return 0, err
	}
	if err := q.Exec(int64(id + 1)); err != nil {
		return 0, fmt.Errorf("generate reference id: %w", err)
	}
	c.nextRefID = id + 1
	return id, nil
}

// ObjectType returns the registered object type for uid, or nil.
func (c *Configuration) ObjectType(uid uuid.UUID) *ObjectType {
	return c.types.ObjectType(uid)
}

// SubElementType returns the registered sub-element type for uid, or nil.
func (c *Configuration) SubElementType(uid uuid.UUID) *SubElementType {
	return c.types.SubElementType(uid)
}

// SceneElementType returns the registered scene element type for uid, or nil.
func (c *Configuration) SceneElementType(uid uuid.UUID) *SceneElementType {
	return c.types.SceneElementType(uid)
}

// InsertObjectType records the object type in the world, once, and returns
// its local key.
func (c *Configuration) InsertObjectType(uid uuid.UUID, table string) (int64, error) {
	key, _, err := c.insertType(categoryObject, uid, table)
	return key, err
}

// InsertObjectSubElementType is InsertObjectType for sub-element types.
func (c *Configuration) InsertObjectSubElementType(uid uuid.UUID, table string) (int64, error) {
	key, _, err := c.insertType(categorySubElement, uid, table)
	return key, err
}

// InsertSceneElementType is InsertObjectType for scene element types.
func (c *Configuration) InsertSceneElementType(uid uuid.UUID, table string) (int64, error) {
	key, _, err := c.insertType(categorySceneElement, uid, table)
	return key, err
}

// insertType returns an undo func when a row was written, so callers whose
// savepoint rolls back can drop the cached key.
func (c *Configuration) insertType(cat typeCategory, uid uuid.UUID, table string) (int64, func(), error) {
	t := c.catalogues[cat]
	if key, ok := t.persist[uid]; ok {
		return key, nil, nil
	}
	q, err := c.db.Prepare(fmt.Sprintf(
		`INSERT INTO '%s' (Identifier, LocalName, DatabaseTable) VALUES (?1, ?2, ?3)`, t.table))
	if err != nil {
		return 0, nil, err
	}
	if err := q.Exec(uid, c.types.Name(uid), table); err != nil {
		return 0, nil, fmt.Errorf("insert %s type %s: %w", cat, uid, err)
	}
	key := c.db.LastInsertRowID()
	t.persist[uid] = key
	t.byKey[key] = uid
	return key, func() {
		delete(t.persist, uid)
		delete(t.byKey, key)
	}, nil
}

// TypePersisted reports whether uid has a row in its category's type table.
func (c *Configuration) TypePersisted(uid uuid.UUID) bool {
	for _, t := range c.catalogues {
		if _, ok := t.persist[uid]; ok {
			return true
		}
	}
	return false
}

// SceneCount returns the number of stored scene descriptors.
func (c *Configuration) SceneCount() int { return len(c.scenes) }

// Scene returns the descriptor at index in SceneId order.
func (c *Configuration) Scene(index int) SceneDescriptor { return c.scenes[index] }

// SceneDescriptorByID returns the stored descriptor with the given id.
func (c *Configuration) SceneDescriptorByID(id uint32) (SceneDescriptor, bool) {
	for _, d := range c.scenes {
		if d.ID == id {
			return d, true
		}
	}
	return SceneDescriptor{}, false
}

// SceneDescriptorByName matches names case-insensitively.
func (c *Configuration) SceneDescriptorByName(name string) (SceneDescriptor, bool) {
	i, ok := c.scenesByName[c.fold.String(name)]
	if !ok {
		return SceneDescriptor{}, false
	}
	return c.scenes[i], true
}

// InsertScene adds a scene row and returns the new id.
func (c *Configuration) InsertScene(d SceneDescriptor) (uint32, error) {
	if !c.hasScenes {
		return 0, fmt.Errorf("insert scene %q: %w", d.Name, ErrNoScenes)
	}
	if _, dup := c.SceneDescriptorByName(d.Name); dup {
		return 0, fmt.Errorf("insert scene %q: name already used", d.Name)
	}
	q, err := c.db.Prepare(`INSERT INTO 'Scenes' (Name, Description, Flags) VALUES (?1, ?2, ?3)`)
	if err != nil {
		return 0, err
	}
	if err := q.Exec(d.Name, d.Description, d.Flags); err != nil {
		return 0, fmt.Errorf("insert scene %q: %w", d.Name, err)
	}
	d.ID = uint32(c.db.LastInsertRowID())
	c.addScene(d)
	return d.ID, nil
}

// UpdateSceneDescriptorByID rewrites the name, description and flags of a
// stored scene.
func (c *Configuration) UpdateSceneDescriptorByID(id uint32, d SceneDescriptor) error {
	idx := -1
	for i := range c.scenes {
		if c.scenes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("update scene %d: %w", id, ErrSceneNotFound)
	}
	if other, ok := c.SceneDescriptorByName(d.Name); ok && other.ID != id {
		return fmt.Errorf("update scene %d: name %q already used", id, d.Name)
	}
	q, err := c.db.Prepare(`UPDATE 'Scenes' SET Name = ?1, Description = ?2, Flags = ?3 WHERE SceneId = ?4`)
	if err != nil {
		return err
	}
	if err := q.Exec(d.Name, d.Description, d.Flags, id); err != nil {
		return fmt.Errorf("update scene %d: %w", id, err)
	}
	delete(c.scenesByName, c.fold.String(c.scenes[idx].Name))
	d.ID = id
	c.scenes[idx] = d
	c.scenesByName[c.fold.String(d.Name)] = idx
	return nil
}

// typeOfKey maps a local type key back to its uid.
func (c *Configuration) typeOfKey(cat typeCategory, key int64) (uuid.UUID, bool) {
	uid, ok := c.catalogues[cat].byKey[key]
	return uid, ok
}
