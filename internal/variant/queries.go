package variant

const basicQuery = `query($businessId: ID!, $page: Int!, $pageSize: Int!) {
  business(id: $businessId) {
    id
    isClassicInvoicing
    invoices(page: $page, pageSize: $pageSize) {
      pageInfo {
        currentPage
        totalPages
        totalCount
      }
      edges {
        node {
          createdAt
          invoiceNumber
          invoiceDate
          customer {
            name
          }
          dueDate
          total {
            value
          }
          items {
            product {
              id
              name
            }
            quantity
            price
          }
        }
      }
    }
  }
}`

const taxQuery = `query($businessId: ID!, $page: Int!, $pageSize: Int!) {
  business(id: $businessId) {
    id
    isClassicInvoicing
    invoices(page: $page, pageSize: $pageSize) {
      pageInfo {
        currentPage
        totalPages
        totalCount
      }
      edges {
        node {
          createdAt
          invoiceNumber
          invoiceDate
          customer {
            name
            shippingDetails {
              address {
                postalCode
              }
            }
            address {
              addressLine1
              addressLine2
              city
              postalCode
            }
          }
          dueDate
          total {
            value
          }
          items {
            product {
              id
              name
            }
            quantity
            price
            taxes {
              amount {
                value
              }
              salesTax {
                id
                name
              }
            }
          }
        }
      }
    }
  }
}`
