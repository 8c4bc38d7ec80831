package envelope

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

type entry struct {
	name   string
	typ    reflect.Type
	decode func(body []byte) (any, error)
}

// Catalog maps stable string tags to the concrete types allowed on the wire.
// Both sides of a remote hop must register the same catalog.
type Catalog struct {
	mu     sync.RWMutex
	byName map[string]entry
	byType map[reflect.Type]entry
}

// NewCatalog builds an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byName: map[string]entry{},
		byType: map[reflect.Type]entry{},
	}
}

// Register associates T with name. Pointer types decode back into pointers.
func Register[T any](c *Catalog, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("register %T: type name is empty", *new(T))
	}
	typ := reflect.TypeFor[T]()
	e := entry{
		name: name,
		typ:  typ,
		decode: func(body []byte) (any, error) {
			target := new(T)
			if err := json.Unmarshal(body, target); err != nil {
				return nil, err
			}
			return *target, nil
		},
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.byName[name]; ok {
		return fmt.Errorf("type name %q already registered for %s", name, existing.typ)
	}
	if existing, ok := c.byType[typ]; ok {
		return fmt.Errorf("type %s already registered as %q", typ, existing.name)
	}
	c.byName[name] = e
	c.byType[typ] = e
	return nil
}

// MustRegister is Register for wiring code; it panics on conflicts.
func MustRegister[T any](c *Catalog, name string) {
	if err := Register[T](c, name); err != nil {
		panic(err)
	}
}

// NameOf returns the tag registered for the payload's dynamic type.
func (c *Catalog) NameOf(payload any) (string, bool) {
	if payload == nil {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byType[reflect.TypeOf(payload)]
	return e.name, ok
}

// Wrap serializes payload and captures its registered tag.
func (c *Catalog) Wrap(payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{}, ErrNilPayload
	}
	name, ok := c.NameOf(payload)
	if !ok {
		return Envelope{}, fmt.Errorf("%w: %T", ErrUnregisteredType, payload)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return Envelope{Body: string(body), TypeName: name}, nil
}

// Unwrap resolves the envelope tag and decodes the body into the registered type.
func (c *Catalog) Unwrap(env Envelope) (any, error) {
	c.mu.RLock()
	e, ok := c.byName[env.TypeName]
	c.mu.RUnlock()
	if !ok {
		return nil, &UnknownTypeError{TypeName: env.TypeName}
	}
	value, err := e.decode([]byte(env.Body))
	if err != nil {
		return nil, fmt.Errorf("%w as %s: %w", ErrDecode, env.TypeName, err)
	}
	return value, nil
}

// Tags lists every registered tag in sorted order.
func (c *Catalog) Tags() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tags := make([]string, 0, len(c.byName))
	for name := range c.byName {
		tags = append(tags, name)
	}
	sort.Strings(tags)
	return tags
}
