package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tbourn/orion-relay/internal/services"
)

func nonEmpty(field string) func(context.Context, Answer) (Answer, error) {
	return func(_ context.Context, a Answer) (Answer, error) {
		if a.Text == "" {
			return a, fmt.Errorf("%s must not be empty", field)
		}
		return a, nil
	}
}

func (b *Bot) hubStep() Step {
	names := strings.Join(b.Catalog.Hubs.Names(), ", ")
	return Step{
		Key:    "hub",
		Prompt: "Which **Hub**? One of: " + names,
		Validate: func(_ context.Context, a Answer) (Answer, error) {
			h, err := b.Catalog.NormalizeHub(a.Text)
			if err != nil {
				return a, fmt.Errorf("unknown hub, choose one of: %s", names)
			}
			a.Text = h
			return a, nil
		},
	}
}

func (b *Bot) externalIDStep(excludeID string) Step {
	return Step{
		Key:    "devProductId",
		Prompt: "What is the **Developer Product ID**?",
		Validate: func(ctx context.Context, a Answer) (Answer, error) {
			if a.Text == "" {
				return a, errors.New("developer product id must not be empty")
			}
			p, err := b.Catalog.FindByExternalID(ctx, a.Text)
			switch {
			case errors.Is(err, services.ErrProductNotFound):
				return a, nil
			case err != nil:
				return a, err
			case p.ID != excludeID:
				return a, fmt.Errorf("**%s** already uses that id", p.Name)
			}
			return a, nil
		},
	}
}

var fileStep = Step{Key: "file", Prompt: "Please upload the **file** that buyers will receive.", File: true}

func cmdAddProduct(ctx context.Context, b *Bot, r *Request) error {
	conv, err := b.openDM(ctx, r, "🛒 Add New Product", "I'll ask you for product details.")
	if err != nil {
		return err
	}
	defer conv.Close()

	ans, err := conv.Run(ctx,
		b.hubStep(),
		Step{Key: "name", Prompt: "What is the **Product Name**?", Validate: nonEmpty("name")},
		Step{Key: "description", Prompt: "What is the **Product Description**?", Validate: nonEmpty("description")},
		Step{Key: "imageId", Prompt: "What is the **Product Image ID**? (asset id)", Validate: nonEmpty("image id")},
		b.externalIDStep(""),
		fileStep,
	)
	if err != nil {
		return err
	}

	p, err := b.Catalog.Create(ctx, services.ProductInput{
		Hub:         ans["hub"].Text,
		Name:        ans["name"].Text,
		Description: ans["description"].Text,
		ImageID:     ans["imageId"].Text,
		ExternalID:  ans["devProductId"].Text,
		FileName:    ans["file"].FileName,
		FileData:    ans["file"].Data,
	}, r.actor())
	if err != nil {
		return err
	}
	b.send(ctx, r.Channel, okEmbed("✅ Product Added",
		fmt.Sprintf("**%s** has been added to the %s hub.\nProduct ID: `%s`", p.Name, p.Hub, p.ID)))
	return nil
}

func cmdRemoveProduct(ctx context.Context, b *Bot, r *Request) error {
	list, err := b.Catalog.List(ctx, "")
	if err != nil {
		return err
	}
	conv, err := b.openDM(ctx, r, "🗑 Remove Product", "Reply with the **Product ID** to remove.")
	if err != nil {
		return err
	}
	defer conv.Close()

	if len(list) == 0 {
		b.sendText(ctx, r.Channel, "There are currently no products.")
		return nil
	}
	var sb strings.Builder
	for i, p := range list {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "**ID:** %s\n**Name:** %s\n**DevProductId:** %s", p.ID, p.Name, p.ExternalID)
	}
	b.send(ctx, r.Channel, infoEmbed("Current Products", sb.String()))

	a, err := conv.Ask(ctx, b.productStep())
	if err != nil {
		return err
	}
	p, err := b.Catalog.Get(ctx, a.Text)
	if err != nil {
		return err
	}
	revoked, err := b.Catalog.Remove(ctx, p.ID, r.actor())
	if err != nil {
		return err
	}
	b.send(ctx, r.Channel, newEmbed("✅ Product Removed",
		fmt.Sprintf("**%s** has been removed. %d entitlement(s) revoked.", p.Name, revoked), colorWarning))
	return nil
}

func cmdEditProduct(ctx context.Context, b *Bot, r *Request) error {
	conv, err := b.openDM(ctx, r, "✏️ Edit Product", "I'll ask which product and field to change.")
	if err != nil {
		return err
	}
	defer conv.Close()

	var productID string
	if len(r.Args) > 0 {
		p, err := b.resolveProduct(ctx, r.Args[0])
		if err != nil {
			return err
		}
		productID = p.ID
	} else {
		a, err := conv.Ask(ctx, b.productStep())
		if err != nil {
			return err
		}
		productID = a.Text
	}

	fields := make([]string, 0, len(services.EditableFields()))
	for _, f := range services.EditableFields() {
		fields = append(fields, "`"+string(f)+"`")
	}
	fa, err := conv.Ask(ctx, Step{
		Key:    "field",
		Prompt: "Which field? " + strings.Join(fields, ", "),
		Validate: func(_ context.Context, a Answer) (Answer, error) {
			f, ok := services.ParseProductField(a.Text)
			if !ok {
				return a, errors.New("unknown field")
			}
			a.Text = string(f)
			return a, nil
		},
	})
	if err != nil {
		return err
	}
	field := services.ProductField(fa.Text)

	if field == services.FieldFile {
		a, err := conv.Ask(ctx, fileStep)
		if err != nil {
			return err
		}
		p, res, err := b.Catalog.ReplaceFile(ctx, productID, a.FileName, a.Data, r.actor())
		if err != nil {
			return err
		}
		b.send(ctx, r.Channel, okEmbed("✅ File Replaced", fmt.Sprintf(
			"**%s** now ships `%s`.\nRedelivered to %d of %d owner(s); %d failed, %d not linked.",
			p.Name, p.FileName, res.Delivered, res.Recipients, res.Failed, res.NotLinked)))
		return nil
	}

	var valueStep Step
	switch field {
	case services.FieldHub:
		valueStep = b.hubStep()
	case services.FieldExternalID:
		valueStep = b.externalIDStep(productID)
	default:
		valueStep = Step{Key: "value", Prompt: fmt.Sprintf("Send the new **%s**.", field), Validate: nonEmpty(string(field))}
	}
	va, err := conv.Ask(ctx, valueStep)
	if err != nil {
		return err
	}
	p, err := b.Catalog.UpdateField(ctx, productID, field, va.Text, r.actor())
	if err != nil {
		return err
	}
	b.send(ctx, r.Channel, okEmbed("✅ Product Updated", fmt.Sprintf("**%s**: %s set to `%s`.", p.Name, field, va.Text)))
	return nil
}
