package analytics

var recommendations = [...]string{
	"Prioritize campaigns with high ROI, such as those that delivered the greatest return per unit of currency invested.",
	"Re-evaluate or redesign low-ROI campaigns, trying new formats or incentives such as gifts or free shipping.",
	"Invest more in campaigns with high spend per customer, since they indicate higher perceived value.",
	"Offer exclusive, personalized experiences to high-value customers, such as VIP events or invitations to product launches.",
	"Create a premium loyalty program with exclusive rewards and benefits.",
	"Build a product recommendation system based on each customer's purchase history.",
}

// Recommendations returns the fixed marketing recommendations. The slice is a
// fresh copy on every call.
func Recommendations() []string {
	out := make([]string, len(recommendations))
	copy(out, recommendations[:])
	return out
}
