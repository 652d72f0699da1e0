package provider

// Trimmed-down GraphQL documents for the umbrella search API. Only the fields
// the parser consumes are requested; the full schema returns far more.

const oneWayQuery = `
query SearchOneWayItinerariesQuery(
  $search: SearchOnewayInput
  $filter: ItinerariesFilterInput
  $options: ItinerariesOptionsInput
) {
  onewayItineraries(search: $search, filter: $filter, options: $options) {
    __typename
    ... on AppError {
      error: message
    }
    ... on Itineraries {
      server {
        requestId
        serverToken
      }
      metadata {
        itinerariesCount
        hasMorePending
      }
      itineraries {
        __typename
        id
        shareId
        bookingToken
        price { amount }
        priceEur { amount }
        provider { name code }
        duration
        pnrCount
        travelHack {
          isTrueHiddenCity
          isVirtualInterlining
          isThrowawayTicket
        }
        bookingOptions {
          edges {
            node {
              token
              bookingUrl
              price { amount }
            }
          }
        }
        ... on ItineraryOneWay {
          sector {
            duration
            sectorSegments {
              segment {
                code
                duration
                cabinClass
                source {
                  localTime
                  utcTimeIso
                  station { name code terminal city { name } }
                }
                destination {
                  localTime
                  utcTimeIso
                  station { name code terminal city { name } }
                }
                hiddenDestination {
                  code
                  name
                  city { name }
                  country { name }
                }
                carrier { name code }
                operatingCarrier { name code }
              }
              layover {
                duration
                isBaggageRecheck
              }
            }
          }
        }
      }
    }
  }
}
`

const returnQuery = `
query SearchReturnItinerariesQuery(
  $search: SearchReturnInput
  $filter: ItinerariesFilterInput
  $options: ItinerariesOptionsInput
) {
  returnItineraries(search: $search, filter: $filter, options: $options) {
    __typename
    ... on AppError {
      error: message
    }
    ... on Itineraries {
      server {
        requestId
        serverToken
      }
      metadata {
        itinerariesCount
        hasMorePending
      }
      itineraries {
        __typename
        ... on ItineraryReturn {
          id
          shareId
          bookingToken
          price { amount }
          priceEur { amount }
          provider { name code }
          duration
          pnrCount
          travelHack {
            isTrueHiddenCity
            isThrowawayTicket
          }
          bookingOptions {
            edges {
              node {
                token
                bookingUrl
                price { amount }
              }
            }
          }
          outbound {
            duration
            sectorSegments {
              segment {
                code
                duration
                cabinClass
                source {
                  localTime
                  utcTimeIso
                  station { name code terminal city { name } }
                }
                destination {
                  localTime
                  utcTimeIso
                  station { name code terminal city { name } }
                }
                hiddenDestination {
                  code
                  name
                  city { name }
                  country { name }
                }
                carrier { name code }
                operatingCarrier { name code }
              }
              layover {
                duration
                isBaggageRecheck
              }
            }
          }
          inbound {
            duration
            sectorSegments {
              segment {
                code
                duration
                cabinClass
                source {
                  localTime
                  utcTimeIso
                  station { name code terminal city { name } }
                }
                destination {
                  localTime
                  utcTimeIso
                  station { name code terminal city { name } }
                }
                hiddenDestination {
                  code
                  name
                  city { name }
                  country { name }
                }
                carrier { name code }
                operatingCarrier { name code }
              }
              layover {
                duration
                isBaggageRecheck
              }
            }
          }
        }
      }
    }
  }
}
`
