// Package render produces the HTML fragments served to the client.
// Every list item is rendered from one of two perspectives: the list
// owner, who must never learn who claimed an item, and a visitor, who
// sees the claimer and may claim free items.
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/tobywinn/giftlist/internal/util"
)

type Perspective int

const (
	Owner Perspective = iota
	Visitor
)

// Client-side signal headers consumed by the frontend.
const (
	HeaderTrigger          = "HX-Trigger"
	HeaderTriggerAfterSwap = "HX-Trigger-After-Swap"
	HeaderLocation         = "HX-Location"
	HeaderRetarget         = "HX-Retarget"

	TriggerShowAddForm  = "showAddForm"
	TriggerHideAddForm  = "hideAddForm"
	TriggerSomePresents = "somePresents"
	TriggerNoPresents   = "noPresents"
)

type ItemView struct {
	ID    uint
	Name  string
	URL   string
	Price float64
	Taken bool
	// TakenBy is the claimer's username. Only populated for the
	// Visitor perspective; owner views never carry it.
	TakenBy string
}

const (
	iconTaken    = "<i class='fa-regular fa-check'></i>"
	iconFree     = "<i class='fa-regular fa-x'></i>"
	iconAllocate = "<i class='fa-sharp fa-solid fa-cart-plus'></i>"
	iconDelete   = "<i class=\"fa-duotone fa-trash-can\"></i>"
)

func takenIcon(taken bool) string {
	if taken {
		return iconTaken
	}
	return iconFree
}

// OwnerRow renders one item for its owner: no claimer identity, a
// delete action instead.
func OwnerRow(v ItemView) string {
	name := html.EscapeString(v.Name)
	return fmt.Sprintf(
		"<tr><td><a href='%s'>%s</a></td><td>%s</td><td style='text-align:center'>%s</td>"+
			"<td><a href='#' hx-target='closest tr' hx-swap='outerHTML' hx-delete='./item/%d' "+
			"hx-confirm='Please confirm you wish to delete %s from your list'>%s</a></td></tr>\n",
		html.EscapeString(v.URL), name, util.FormatCurrency(v.Price),
		takenIcon(v.Taken), v.ID, name, iconDelete,
	)
}

// VisitorRow renders one item for anyone other than its owner: the
// claimer is shown once taken, and the allocate action is suppressed
// on taken items.
func VisitorRow(v ItemView) string {
	name := html.EscapeString(v.Name)
	action := iconAllocate
	if v.Taken {
		action = ""
	}
	return fmt.Sprintf(
		"<tr><td><a href='%s'>%s</a></td><td>%s</td><td style='text-align:center'>%s</td>"+
			"<td class='taken-by'>%s</td>"+
			"<td><a hx-patch='./item/%d' hx-confirm='Please confirm you are buying or have bought %s' "+
			"hx-target='closest tr' href='#'>%s</a></td></tr>\n",
		html.EscapeString(v.URL), name, util.FormatCurrency(v.Price),
		takenIcon(v.Taken), html.EscapeString(v.TakenBy), v.ID, name, action,
	)
}

// AllocatedCells renders the replacement cells for a row that was just
// claimed by the caller.
func AllocatedCells(v ItemView) string {
	return fmt.Sprintf(
		"<td><a href='%s'>%s</a></td><td>%s</td><td style='text-align:center'>%s</td>"+
			"<td class='taken-by'>%s</td><td></td>",
		html.EscapeString(v.URL), html.EscapeString(v.Name),
		util.FormatCurrency(v.Price), iconTaken, html.EscapeString(v.TakenBy),
	)
}

// Table renders a full item list from the given perspective, including
// the empty-list placeholder.
func Table(views []ItemView, p Perspective) string {
	var b strings.Builder
	b.WriteString("<table id='list-table'>")
	if p == Owner {
		b.WriteString("<thead><tr><th>Name</th><th>Price</th><th>Taken</th><th>Delete</th></tr></thead>\n<tbody>")
	} else {
		b.WriteString("<thead><tr><th>Name</th><th>Price</th><th>Taken</th><th class='taken-by'>Taken by</th><th>Action</th></tr></thead>\n<tbody>")
	}
	for _, v := range views {
		if p == Owner {
			b.WriteString(OwnerRow(v))
		} else {
			b.WriteString(VisitorRow(v))
		}
	}
	b.WriteString("</tbody></table>")

	if len(views) == 0 {
		if p == Owner {
			b.WriteString("<p class='no-presents'>You have no items in your list, try adding some below.</p>")
		} else {
			b.WriteString("<p class='no-presents'>This person's list is currently empty.</p>")
		}
	}
	return b.String()
}

type UserOption struct {
	ID       uint
	Username string
}

// UserOptions renders the list selector: the caller's own list first,
// then every other user in the order given.
func UserOptions(callerID uint, users []UserOption) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"<select hx-target='#items' hx-get='./items/' hx-on='htmx:configRequest: event.detail.path += this.value' "+
			"id='users-list' name='users-list'><option value='%d'>Your list</option>", callerID)
	for _, u := range users {
		fmt.Fprintf(&b, "<option value='%d'>%s</option>", u.ID, html.EscapeString(u.Username))
	}
	b.WriteString("</select>")
	return b.String()
}
