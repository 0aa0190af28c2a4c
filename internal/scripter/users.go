package scripter

import (
	"context"
	"fmt"
)

// buildUsers scripts roles, then users, then role memberships. Users
// whose principal cannot be recreated from the catalog alone (contained
// users with passwords) are skipped, along with their memberships.
func (g *Generator) buildUsers(ctx context.Context) ([]string, error) {
	roles, err := g.fetchRoles(ctx)
	if err != nil {
		return nil, err
	}
	users, err := g.fetchUsers(ctx)
	if err != nil {
		return nil, err
	}
	members, err := g.fetchRoleMembers(ctx)
	if err != nil {
		return nil, err
	}

	var batches []string
	scripted := make(map[string]bool, len(roles)+len(users))
	for _, r := range roles {
		scripted[r] = true
		batches = append(batches, renderRole(r))
	}
	for _, u := range users {
		stmt, ok := renderUser(u)
		if !ok {
			g.logger.Warn("skipping user without a scriptable login",
				"user", u.Name, "authentication", u.AuthType)
			continue
		}
		scripted[u.Name] = true
		batches = append(batches, stmt)
	}
	for _, m := range members {
		// Fixed roles like db_datareader exist everywhere, so only the
		// member has to be one we scripted.
		if !scripted[m.Member] {
			continue
		}
		batches = append(batches, renderRoleMember(m))
	}
	return batches, nil
}

func renderRole(name string) string {
	return fmt.Sprintf("CREATE ROLE %s;\n", quote(name))
}

// renderUser returns the CREATE USER statement, or ok=false when the
// authentication type has no catalog-only equivalent.
func renderUser(u user) (string, bool) {
	switch u.AuthType {
	case "NONE":
		return fmt.Sprintf("CREATE USER %s WITHOUT LOGIN;\n", quote(u.Name)), true
	case "INSTANCE", "WINDOWS":
		return fmt.Sprintf("CREATE USER %s FOR LOGIN %s;\n", quote(u.Name), quote(u.Name)), true
	default:
		return "", false
	}
}

func renderRoleMember(m roleMember) string {
	return fmt.Sprintf("ALTER ROLE %s ADD MEMBER %s;\n", quote(m.Role), quote(m.Member))
}
