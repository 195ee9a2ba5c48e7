package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/orion-relay/internal/domain"
	"github.com/tbourn/orion-relay/internal/services"
	"github.com/tbourn/orion-relay/internal/utils"
)

var titleCase = cases.Title(language.English)

func builtinCommands() []*Command {
	return []*Command{
		{Name: "commands", Aliases: []string{"help"}, Help: "List commands", Run: cmdCommands},
		{Name: "pverify", Aliases: []string{"verify"}, Usage: "<code>", Help: "Link your game account", Run: cmdVerify},
		{Name: "profile", Usage: "[@user|gameId]", Help: "Show a linked account and its products", Run: cmdProfile},
		{Name: "resetverify", Usage: "<gameId>", Help: "Remove a link and its pending codes", AdminOnly: true, Run: cmdResetVerify},
		{Name: "grant", Usage: "[@user|gameId] [product]", Help: "Give a product", AdminOnly: true, Run: cmdGrant},
		{Name: "revoke", Usage: "[@user|gameId] [product]", Help: "Take a product away", AdminOnly: true, Run: cmdRevoke},
		{Name: "addproduct", Help: "Create a shop product", AdminOnly: true, Run: cmdAddProduct},
		{Name: "removeproduct", Help: "Remove a shop product", AdminOnly: true, Run: cmdRemoveProduct},
		{Name: "editproduct", Usage: "[product]", Help: "Change one field of a product", AdminOnly: true, Run: cmdEditProduct},
		{Name: "downtime", Usage: "[on|off]", Help: "Show or set the game downtime flag", AdminOnly: true, Run: cmdDowntime},
	}
}

// ----- helpers -----

func isNumeric(s string) bool { return utils.IsDigits(s) }

func isVerifyCode(s string) bool { return utils.IsCode(s, 6) }

// parseMention extracts the user id from <@id> or <@!id>.
func parseMention(s string) (string, bool) {
	if !strings.HasPrefix(s, "<@") || !strings.HasSuffix(s, ">") {
		return "", false
	}
	id := strings.TrimPrefix(strings.TrimSuffix(s[2:], ">"), "!")
	return id, isNumeric(id)
}

// resolveAccount maps a profile/grant target to a game account id. An empty
// target means the invoking chat account.
func (b *Bot) resolveAccount(ctx context.Context, target, self string) (string, error) {
	target = strings.TrimSpace(target)
	chatID := self
	if target != "" {
		if isNumeric(target) {
			return target, nil
		}
		id, ok := parseMention(target)
		if !ok {
			return "", userErr("❌ Invalid User", "Use a mention or a numeric game account id.")
		}
		chatID = id
	}
	g, linked, err := b.Links.LookupByChatAccount(ctx, chatID)
	if err != nil {
		return "", err
	}
	if !linked {
		if chatID == self {
			return "", userErr("❌ Not Linked", "You have not linked an account yet. Use `"+b.Prefix+"pverify <code>`.")
		}
		return "", userErr("❌ Not Linked", fmt.Sprintf("<@%s> has not linked an account.", chatID))
	}
	return g, nil
}

// resolveProduct accepts a product id or a devProductId.
func (b *Bot) resolveProduct(ctx context.Context, ref string) (*domain.Product, error) {
	p, err := b.Catalog.Get(ctx, ref)
	if errors.Is(err, services.ErrProductNotFound) {
		p, err = b.Catalog.FindByExternalID(ctx, ref)
	}
	return p, err
}

func (b *Bot) accountStep(self string) Step {
	return Step{
		Key:    "account",
		Prompt: "Who? Mention the user or send their **game account id**.",
		Validate: func(ctx context.Context, a Answer) (Answer, error) {
			g, err := b.resolveAccount(ctx, a.Text, self)
			if err != nil {
				return a, err
			}
			a.Text = g
			return a, nil
		},
	}
}

func (b *Bot) productStep() Step {
	return Step{
		Key:    "product",
		Prompt: "Which product? Send the **Product ID** or **Developer Product ID**.",
		Validate: func(ctx context.Context, a Answer) (Answer, error) {
			p, err := b.resolveProduct(ctx, a.Text)
			if err != nil {
				return a, err
			}
			a.Text = p.ID
			return a, nil
		},
	}
}

func productLines(ps []domain.Product) string {
	if len(ps) == 0 {
		return "none"
	}
	var sb strings.Builder
	for i, p := range ps {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "**%s** (%s) `%s`", p.Name, p.Hub, p.ID)
	}
	return sb.String()
}

// ----- public -----

func cmdCommands(ctx context.Context, b *Bot, r *Request) error {
	var public, admin strings.Builder
	for _, c := range b.Commands() {
		line := "`" + b.Prefix + c.Name
		if c.Usage != "" {
			line += " " + c.Usage
		}
		line += "` – " + c.Help + "\n"
		if c.AdminOnly {
			admin.WriteString(line)
		} else {
			public.WriteString(line)
		}
	}
	e := infoEmbed("📜 OrionBot Commands", "")
	e.Fields = []*discordgo.MessageEmbedField{
		{Name: "👥 Public Commands", Value: strings.TrimSpace(public.String())},
		{Name: "🛡️ Staff Commands", Value: strings.TrimSpace(admin.String())},
	}
	b.send(ctx, r.Channel, e)
	return nil
}

func cmdVerify(ctx context.Context, b *Bot, r *Request) error {
	if len(r.Args) == 0 {
		return userErr("❌ Missing Code", "Please provide your 6-digit verification code.")
	}
	code := r.Args[0]
	if !isVerifyCode(code) {
		return userErr("❌ Invalid Code", "That code is invalid or expired.")
	}
	link, err := b.Links.Verify(ctx, code, r.author().ID)
	if errors.Is(err, services.ErrNotFound) {
		return userErr("❌ Invalid Code", "That code is invalid or expired.")
	}
	if err != nil {
		return err
	}
	b.send(ctx, r.Channel, okEmbed("✅ Verified & Linked",
		fmt.Sprintf("Linked game account **%s** to <@%s>.", link.GameAccountID, link.ChatAccountID)))
	return nil
}

func cmdProfile(ctx context.Context, b *Bot, r *Request) error {
	target := ""
	if len(r.Args) > 0 {
		target = r.Args[0]
	}
	g, err := b.resolveAccount(ctx, target, r.author().ID)
	if err != nil {
		return err
	}
	prof, err := b.Ents.Profile(ctx, g)
	if err != nil {
		return err
	}
	chat := "not linked"
	if prof.Linked {
		chat = "<@" + prof.ChatAccountID + ">"
	}
	e := infoEmbed("👤 Profile", "")
	e.Fields = []*discordgo.MessageEmbedField{
		{Name: "Game Account", Value: prof.GameAccountID, Inline: true},
		{Name: "Discord", Value: chat, Inline: true},
		{Name: fmt.Sprintf("Products (%d)", len(prof.Products)), Value: productLines(prof.Products)},
	}
	b.send(ctx, r.Channel, e)
	return nil
}

// ----- admin -----

func cmdResetVerify(ctx context.Context, b *Bot, r *Request) error {
	if len(r.Args) == 0 || !isNumeric(r.Args[0]) {
		return userErr("❌ Invalid UserId", "Please provide a valid game account id.")
	}
	g := r.Args[0]
	existed, err := b.Links.Unlink(ctx, g, r.actor())
	if err != nil {
		return err
	}
	desc := fmt.Sprintf("Verification/link reset for game account **%s**.", g)
	if !existed {
		desc += "\nIt had no link; pending codes were cleared."
	}
	b.send(ctx, r.Channel, okEmbed("♻️ Verification Reset", desc))
	return nil
}

// collectPair resolves the account and product for grant and revoke from
// inline arguments, falling back to a DM conversation when either is missing.
func (b *Bot) collectPair(ctx context.Context, r *Request, title string) (string, string, error) {
	if len(r.Args) >= 2 {
		g, err := b.resolveAccount(ctx, r.Args[0], r.author().ID)
		if err != nil {
			return "", "", err
		}
		p, err := b.resolveProduct(ctx, r.Args[1])
		if err != nil {
			return "", "", err
		}
		return g, p.ID, nil
	}
	conv, err := b.openDM(ctx, r, title, "I'll ask who and which product.")
	if err != nil {
		return "", "", err
	}
	defer conv.Close()
	ans, err := conv.Run(ctx, b.accountStep(r.author().ID), b.productStep())
	if err != nil {
		return "", "", err
	}
	return ans["account"].Text, ans["product"].Text, nil
}

func cmdGrant(ctx context.Context, b *Bot, r *Request) error {
	g, pid, err := b.collectPair(ctx, r, "🎁 Grant Product")
	if err != nil {
		return err
	}
	res, err := b.Ents.Grant(ctx, g, pid, r.actor())
	if err != nil {
		return err
	}
	if !res.NewlyOwned {
		b.send(ctx, r.Channel, infoEmbed("ℹ️ Already Owned", fmt.Sprintf("**%s** already owns **%s**.", g, res.Product.Name)))
		return nil
	}
	desc := fmt.Sprintf("Granted **%s** to **%s**.", res.Product.Name, g)
	switch {
	case res.Delivered():
		desc += "\nThe file was sent by DM."
	case errors.Is(res.DeliveryErr, services.ErrNotLinked):
		desc += "\nThe account is not linked, so nothing was sent."
	case res.DeliveryErr != nil:
		desc += "\n⚠️ The DM could not be delivered."
	}
	b.send(ctx, r.Channel, okEmbed("✅ Granted", desc))
	return nil
}

func cmdRevoke(ctx context.Context, b *Bot, r *Request) error {
	g, pid, err := b.collectPair(ctx, r, "🚫 Revoke Product")
	if err != nil {
		return err
	}
	existed, err := b.Ents.Revoke(ctx, g, pid, r.actor())
	if err != nil {
		return err
	}
	if !existed {
		b.send(ctx, r.Channel, infoEmbed("ℹ️ Not Owned", fmt.Sprintf("**%s** did not own that product.", g)))
		return nil
	}
	b.send(ctx, r.Channel, okEmbed("✅ Revoked", fmt.Sprintf("Product `%s` revoked from **%s**.", pid, g)))
	return nil
}

func cmdDowntime(ctx context.Context, b *Bot, r *Request) error {
	if len(r.Args) == 0 {
		st, err := b.Downtime.State(ctx)
		if err != nil {
			return err
		}
		desc := "Downtime is **off**."
		if st.Enabled {
			desc = "Downtime is **on**."
		}
		if st.UpdatedBy != "" {
			desc += fmt.Sprintf("\nLast set by %s.", st.UpdatedBy)
		}
		b.send(ctx, r.Channel, infoEmbed("🛠 Downtime", desc))
		return nil
	}
	var enabled bool
	switch strings.ToLower(r.Args[0]) {
	case "on", "true", "enable":
		enabled = true
	case "off", "false", "disable":
		enabled = false
	default:
		return userErr("❌ Invalid Value", "Use `"+b.Prefix+"downtime on` or `"+b.Prefix+"downtime off`.")
	}
	got, err := b.Downtime.Set(ctx, enabled, r.actor())
	if err != nil {
		return err
	}
	state := "disabled"
	if got {
		state = "enabled"
	}
	b.send(ctx, r.Channel, okEmbed("🛠 Downtime "+titleCase.String(state), "Stored. Game servers read the new value on their next poll."))
	return nil
}
