package locale

import "golang.org/x/text/language"

// Key names one display string.
type Key string

const (
	KeyCartEmpty        Key = "cart.empty"
	KeyCartAdded        Key = "cart.added"
	KeyCartUpdated      Key = "cart.updated"
	KeyCartRemoved      Key = "cart.removed"
	KeyCartCleared      Key = "cart.cleared"
	KeyCheckoutThanks   Key = "checkout.thanks"
	KeyCheckoutPayment  Key = "checkout.payment_note"
	KeyReceiptTitle     Key = "receipt.title"
	KeyReceiptOrder     Key = "receipt.order"
	KeyReceiptDate      Key = "receipt.date"
	KeyReceiptBuyer     Key = "receipt.buyer"
	KeyReceiptName      Key = "receipt.name"
	KeyReceiptEmail     Key = "receipt.email"
	KeyReceiptPhone     Key = "receipt.phone"
	KeyReceiptIndex     Key = "receipt.index"
	KeyReceiptID        Key = "receipt.id"
	KeyReceiptItem      Key = "receipt.item"
	KeyReceiptUnitPrice Key = "receipt.unit_price"
	KeyReceiptQuantity  Key = "receipt.quantity"
	KeyReceiptLineTotal Key = "receipt.line_total"
	KeyReceiptLink      Key = "receipt.link"
	KeyReceiptTotal     Key = "receipt.total"
	KeyReceiptSupport   Key = "receipt.support"
	KeyAdminLogin       Key = "admin.login_required"
)

var catalogs = map[language.Tag]map[Key]string{
	language.English: {
		KeyCartEmpty:        "Your cart is empty",
		KeyCartAdded:        "Added to cart",
		KeyCartUpdated:      "Cart updated",
		KeyCartRemoved:      "Removed from cart",
		KeyCartCleared:      "Cart cleared",
		KeyCheckoutThanks:   "Thank you for your order",
		KeyCheckoutPayment:  "Our team will contact you to confirm payment.",
		KeyReceiptTitle:     "Purchase receipt",
		KeyReceiptOrder:     "Order",
		KeyReceiptDate:      "Date",
		KeyReceiptBuyer:     "Buyer",
		KeyReceiptName:      "Name",
		KeyReceiptEmail:     "Email",
		KeyReceiptPhone:     "Phone",
		KeyReceiptIndex:     "#",
		KeyReceiptID:        "ID",
		KeyReceiptItem:      "Title",
		KeyReceiptUnitPrice: "Unit price",
		KeyReceiptQuantity:  "Qty",
		KeyReceiptLineTotal: "Line total",
		KeyReceiptLink:      "Download",
		KeyReceiptTotal:     "Total",
		KeyReceiptSupport:   "Support",
		KeyAdminLogin:       "Please sign in to continue",
	},
	language.French: {
		KeyCartEmpty:        "Votre panier est vide",
		KeyCartAdded:        "Ajouté au panier",
		KeyCartUpdated:      "Panier mis à jour",
		KeyCartRemoved:      "Retiré du panier",
		KeyCartCleared:      "Panier vidé",
		KeyCheckoutThanks:   "Merci pour votre commande",
		KeyCheckoutPayment:  "Notre équipe vous contactera pour confirmer le paiement.",
		KeyReceiptTitle:     "Reçu d'achat",
		KeyReceiptOrder:     "Commande",
		KeyReceiptDate:      "Date",
		KeyReceiptBuyer:     "Acheteur",
		KeyReceiptName:      "Nom",
		KeyReceiptEmail:     "E-mail",
		KeyReceiptPhone:     "Téléphone",
		KeyReceiptIndex:     "N°",
		KeyReceiptID:        "ID",
		KeyReceiptItem:      "Titre",
		KeyReceiptUnitPrice: "Prix unitaire",
		KeyReceiptQuantity:  "Qté",
		KeyReceiptLineTotal: "Total ligne",
		KeyReceiptLink:      "Téléchargement",
		KeyReceiptTotal:     "Total",
		KeyReceiptSupport:   "Assistance",
		KeyAdminLogin:       "Veuillez vous connecter pour continuer",
	},
	language.Spanish: {
		KeyCartEmpty:        "Tu carrito está vacío",
		KeyCartAdded:        "Añadido al carrito",
		KeyCartUpdated:      "Carrito actualizado",
		KeyCartRemoved:      "Eliminado del carrito",
		KeyCartCleared:      "Carrito vaciado",
		KeyCheckoutThanks:   "Gracias por tu pedido",
		KeyCheckoutPayment:  "Nuestro equipo te contactará para confirmar el pago.",
		KeyReceiptTitle:     "Recibo de compra",
		KeyReceiptOrder:     "Pedido",
		KeyReceiptDate:      "Fecha",
		KeyReceiptBuyer:     "Comprador",
		KeyReceiptName:      "Nombre",
		KeyReceiptEmail:     "Correo",
		KeyReceiptPhone:     "Teléfono",
		KeyReceiptIndex:     "N.º",
		KeyReceiptID:        "ID",
		KeyReceiptItem:      "Título",
		KeyReceiptUnitPrice: "Precio unitario",
		KeyReceiptQuantity:  "Cant.",
		KeyReceiptLineTotal: "Total línea",
		KeyReceiptLink:      "Descarga",
		KeyReceiptTotal:     "Total",
		KeyReceiptSupport:   "Soporte",
		KeyAdminLogin:       "Inicia sesión para continuar",
	},
}
