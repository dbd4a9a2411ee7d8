package graph

import (
	"github.com/matzehuels/groupsync/pkg/dag"
	"github.com/matzehuels/groupsync/pkg/lockfile"
	"github.com/matzehuels/groupsync/pkg/manifest"
)

// Options controls what [Build] adds to the graph.
type Options struct {
	// Packages adds a node per required package.
	Packages bool
	// Locks maps a group name to its lockfile; the pinned version is added
	// to package edges.
	Locks map[string]*lockfile.Lockfile
}

// Dangling is an include declaration whose target does not exist.
type Dangling struct {
	Group  *manifest.Group
	Target string
}

// GroupID returns the node ID of a group.
func GroupID(kind manifest.Kind, name string) string {
	return string(kind) + ":" + manifest.Normalize(name)
}

// PackageID returns the node ID of a package.
func PackageID(name string) string { return "pkg:" + manifest.Normalize(name) }

// Build returns the group graph of m. Duplicate group declarations
// collapse onto the first one.
func Build(m *manifest.Manifest, opts Options) (*dag.DAG, []Dangling) {
	g := dag.New()
	for _, grp := range m.Groups {
		kind := dag.NodeKindGroup
		if grp.Kind == manifest.KindExtra {
			kind = dag.NodeKindExtra
		}
		_ = g.AddNode(dag.Node{
			ID:    GroupID(grp.Kind, grp.Name),
			Label: grp.Name,
			Kind:  kind,
			Meta:  dag.Metadata{"requirements": len(grp.Constraints)},
		})
	}

	var dangling []Dangling
	for _, grp := range m.Groups {
		from := GroupID(grp.Kind, grp.Name)
		for _, inc := range grp.Includes {
			if err := g.AddEdge(dag.Edge{From: from, To: GroupID(grp.Kind, inc)}); err != nil {
				dangling = append(dangling, Dangling{Group: grp, Target: inc})
			}
		}
		if !opts.Packages {
			continue
		}
		lock := opts.Locks[grp.Name]
		for _, c := range grp.Constraints {
			to := PackageID(c.Name)
			if _, ok := g.Node(to); !ok {
				_ = g.AddNode(dag.Node{ID: to, Label: c.Name, Kind: dag.NodeKindPackage})
			}
			_ = g.AddEdge(dag.Edge{From: from, To: to, Meta: edgeMeta(c, lock)})
		}
	}

	g.AssignLayers()
	return g, dangling
}

func edgeMeta(c manifest.Constraint, lock *lockfile.Lockfile) dag.Metadata {
	meta := dag.Metadata{}
	label := ""
	if r, err := c.Range(); err == nil && len(c.Specifiers) > 0 {
		label = r.String()
		meta["range"] = label
	}
	if lock != nil {
		if pin, ok := lock.Pin(c.Name); ok {
			meta["pinned"] = pin.Version
			if label != "" {
				label += " "
			}
			label += "==" + pin.Version
		}
	}
	if label != "" {
		meta["label"] = label
	}
	return meta
}
