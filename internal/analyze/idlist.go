package analyze

import "gopkg.in/yaml.v3"

// IDList is a list of VLAN IDs that unmarshals from either a single scalar
// or a sequence, so check files can write `id: 100` as well as
// `id: [100, 200]`.
type IDList []uint16

func (l *IDList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var single uint16
		if err := node.Decode(&single); err != nil {
			return err
		}
		*l = IDList{single}
		return nil
	}
	var many []uint16
	if err := node.Decode(&many); err != nil {
		return err
	}
	*l = IDList(many)
	return nil
}
