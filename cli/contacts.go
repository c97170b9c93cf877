// ABOUTME: Contact CLI commands
// ABOUTME: Human-friendly commands for listing, creating, updating, deleting and calling contacts
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/harperreed/ringbook/display"
	"github.com/harperreed/ringbook/models"
)

// ListContactsCommand lists contacts with optional search and sort.
func ListContactsCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("list-contacts", flag.ContinueOnError)
	fs.SetOutput(env.out())
	search := fs.String("search", "", "Search text")
	sort := fs.String("sort", "asc", "Sort order (asc or desc)")
	format := fs.String("format", FormatTable, "Output format (table, json or yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	order, ok := models.ParseSortOrder(*sort)
	if !ok {
		return fmt.Errorf("invalid --sort %q (use asc or desc)", *sort)
	}
	if err := validFormat(*format); err != nil {
		return err
	}
	if err := env.RequireAuth(); err != nil {
		return err
	}

	list, err := env.Contacts.ListContacts(ctx, &models.ListFilter{Search: *search, SortOrder: order})
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}

	w := env.out()
	if *format == FormatTable && len(list) == 0 {
		_, _ = fmt.Fprintln(w, "No contacts found")
		return nil
	}

	return writeOutput(w, *format, list, func(tw *tabwriter.Writer) {
		_, _ = fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tMOBILE\tCITY\tSTATE")
		_, _ = fmt.Fprintln(tw, "--\t----\t-----\t-----\t------\t----\t-----")
		for _, c := range list {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				c.IDValue(), c.Name, dash(c.Email), dash(c.Phone), dash(c.Mobile), dash(c.City), dash(c.State))
		}
	})
}

// contactFlags registers one string flag per editable contact field.
type contactFlags struct {
	name, email, phone, mobile, address, district, city, state, photo *string
}

func registerContactFlags(fs *flag.FlagSet) contactFlags {
	return contactFlags{
		name:     fs.String("name", "", "Contact name"),
		email:    fs.String("email", "", "Email address"),
		phone:    fs.String("phone", "", "Phone number"),
		mobile:   fs.String("mobile", "", "Mobile number"),
		address:  fs.String("address", "", "Street address"),
		district: fs.String("district", "", "District"),
		city:     fs.String("city", "", "City"),
		state:    fs.String("state", "", "State"),
		photo:    fs.String("photo", "", "Photo URL"),
	}
}

func (f contactFlags) contact() models.Contact {
	return models.Contact{
		Name:     strings.TrimSpace(*f.name),
		Email:    strings.TrimSpace(*f.email),
		Phone:    strings.TrimSpace(*f.phone),
		Mobile:   strings.TrimSpace(*f.mobile),
		Address:  strings.TrimSpace(*f.address),
		District: strings.TrimSpace(*f.district),
		City:     strings.TrimSpace(*f.city),
		State:    strings.TrimSpace(*f.state),
		Photo:    strings.TrimSpace(*f.photo),
	}
}

// patch includes only the flags that were given on the command line.
func (f contactFlags) patch(fs *flag.FlagSet) models.ContactPatch {
	var p models.ContactPatch
	fields := map[string]**string{
		"name":     &p.Name,
		"email":    &p.Email,
		"phone":    &p.Phone,
		"mobile":   &p.Mobile,
		"address":  &p.Address,
		"district": &p.District,
		"city":     &p.City,
		"state":    &p.State,
		"photo":    &p.Photo,
	}
	fs.Visit(func(fl *flag.Flag) {
		if dst, ok := fields[fl.Name]; ok {
			v := strings.TrimSpace(fl.Value.String())
			*dst = &v
		}
	})
	return p
}

// AddContactCommand creates a contact.
func AddContactCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("add-contact", flag.ContinueOnError)
	fs.SetOutput(env.out())
	flags := registerContactFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	draft := flags.contact()
	if missing := draft.MissingFields(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = "--" + m
		}
		return fmt.Errorf("%s required", strings.Join(names, ", "))
	}
	if err := env.RequireAuth(); err != nil {
		return err
	}

	created, err := env.Contacts.CreateContact(ctx, draft)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	env.logger().Info("contact created", zap.Int64("contact_id", created.IDValue()))

	w := env.out()
	_, _ = fmt.Fprintf(w, "✓ Contact created: %s (ID: %d)\n", created.Name, created.IDValue())
	_, _ = fmt.Fprintf(w, "  Email: %s\n", created.Email)
	_, _ = fmt.Fprintf(w, "  Mobile: %s\n", created.Mobile)
	return nil
}

// UpdateContactCommand sends only the fields given as flags.
func UpdateContactCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("update-contact", flag.ContinueOnError)
	fs.SetOutput(env.out())
	flags := registerContactFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("contact ID required")
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}

	patch := flags.patch(fs)
	if patch.IsEmpty() {
		return fmt.Errorf("nothing to update: pass at least one field flag")
	}
	if err := env.RequireAuth(); err != nil {
		return err
	}

	updated, err := env.Contacts.UpdateContact(ctx, id, patch)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	env.logger().Info("contact updated", zap.Int64("contact_id", id))

	_, _ = fmt.Fprintf(env.out(), "✓ Contact updated: %s (ID: %d)\n", updated.Name, id)
	return nil
}

// DeleteContactCommand deletes a contact by id.
func DeleteContactCommand(ctx context.Context, env *Env, args []string) error {
	id, err := requireID("delete-contact", args)
	if err != nil {
		return err
	}
	if err := env.RequireAuth(); err != nil {
		return err
	}

	if err := env.Contacts.DeleteContact(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	env.logger().Info("contact deleted", zap.Int64("contact_id", id))

	_, _ = fmt.Fprintf(env.out(), "✓ Contact %d deleted\n", id)
	return nil
}

// CallContactCommand asks the server to place a call to a contact.
func CallContactCommand(ctx context.Context, env *Env, args []string) error {
	id, err := requireID("call-contact", args)
	if err != nil {
		return err
	}
	if err := env.RequireAuth(); err != nil {
		return err
	}

	if err := env.Contacts.CallContact(ctx, id); err != nil {
		return fmt.Errorf("failed to call contact: %w", err)
	}

	_, _ = fmt.Fprintf(env.out(), "✓ Call requested for contact %d\n", id)
	return nil
}

func requireID(name string, args []string) (int64, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if fs.NArg() < 1 {
		return 0, fmt.Errorf("contact ID required")
	}
	return parseID(fs.Arg(0))
}

// ErrorText is what the CLI prints for a failed command.
func ErrorText(err error) string {
	return display.Describe(err)
}
