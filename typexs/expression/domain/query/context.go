package query

// Flag is an interpretation switch inherited by every node of a subtree.
type Flag string

const (
	// AutoEqualConvSupport turns a bare {field: literal} pair into an equality test.
	AutoEqualConvSupport Flag = "AUTO_EQUAL_CONV_SUPPORT"
	// NumberProjectSupport makes 1/0 mean include/exclude inside $project.
	NumberProjectSupport Flag = "NUMBER_PROJECT_SUPPORT"
	// GroupID marks the _id subtree of a $group stage.
	GroupID Flag = "GROUP_ID"
)

// Context carries the position key of a node and the flags inherited from
// its ancestors. A Context is a value: With returns a modified copy and the
// parent never observes changes made for a child.
type Context struct {
	key   string
	flags map[Flag]bool
}

func RootContext() Context {
	return Context{flags: map[Flag]bool{AutoEqualConvSupport: true}}
}

func (c Context) Key() string {
	return c.key
}

// Child returns the context for the child at key. Flags are shared, since
// they are never mutated in place.
func (c Context) Child(key string) Context {
	return Context{key: key, flags: c.flags}
}

func (c Context) With(flag Flag, value bool) Context {
	flags := make(map[Flag]bool, len(c.flags)+1)
	for k, v := range c.flags {
		flags[k] = v
	}
	flags[flag] = value
	return Context{key: c.key, flags: flags}
}

func (c Context) Is(flag Flag) bool {
	return c.flags[flag]
}

func (c Context) Flags() map[Flag]bool {
	flags := make(map[Flag]bool, len(c.flags))
	for k, v := range c.flags {
		flags[k] = v
	}
	return flags
}
